package main

import (
	"fmt"
	"net"
	"os"

	"github.com/de-tools/stats-report/pkg/runtime/app"
	"github.com/de-tools/stats-report/pkg/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var settings app.Settings

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for statistics reports",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&settings.ConfigPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.Flags().StringVar(&settings.ProfilesPath, "profiles", app.DefaultProfilesPath(),
		"Path to the profiles ini file")
	rootCmd.Flags().StringVarP(&settings.Profile, "profile", "p", "", "Profile to take API credentials from")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	a, err := app.Open(cmd.Context(), settings, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	defer a.Close()

	deps := server.Dependencies{
		Gate:      a.Gate,
		Generator: a.Generator,
	}
	if a.History != nil {
		deps.History = a.History
	}

	addr := net.JoinHostPort(a.Config.Server.Host, a.Config.Server.Port)
	webAPI := server.NewWebAPI(a.Logger, server.Config{
		Addr:            addr,
		ShutdownTimeout: a.Config.Server.ShutdownTimeout,
		Dependencies:    deps,
	})

	if a.Gate.Len() == 0 {
		a.Logger.Warn().Msg("ADMIN_USER_IDS is empty, every report request will be rejected")
	}

	return webAPI.Start()
}
