package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/de-tools/stats-report/pkg/runtime/app"
	"github.com/de-tools/stats-report/pkg/runtime/telegram"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var settings app.Settings

func main() {
	var rootCmd = &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot that sends statistics reports",
		RunE:  runBot,
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

func runBot(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, settings, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	defer a.Close()

	if a.Config.Bot.Token == "" {
		return fmt.Errorf("missing required configuration: BOT_TOKEN")
	}
	if a.Gate.Len() == 0 {
		a.Logger.Warn().Msg("ADMIN_USER_IDS is empty, nobody can request reports")
	}

	client, err := telegram.NewClient(a.Config.Bot.Token, telegram.WithBaseURL(a.Config.Bot.APIURL))
	if err != nil {
		return fmt.Errorf("failed to create telegram client: %w", err)
	}
	a.Logger.Info().Str("bot", client.Username()).Msg("telegram token verified")

	bot, err := telegram.NewBot(telegram.Options{
		API:         client,
		Gate:        a.Gate,
		Generator:   a.Generator,
		PollTimeout: a.Config.Bot.PollTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	return bot.Run(a.Context(ctx))
}
