package main

import (
	"fmt"
	"os"

	"github.com/de-tools/stats-report/pkg/runtime/terminal"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cli := terminal.NewCLI(terminal.Options{
		Open:   terminal.OpenApp(os.Stderr),
		Output: os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
