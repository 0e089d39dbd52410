package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	envload "github.com/lockwatch/lockwatch/internal"
)

var rootCmd = &cobra.Command{
	Use:   "lockwatch",
	Short: "Watch smart locks and raise a chat alert when one is left unlocked",
	Long: `lockwatch polls a fleet of Sesame smart locks through the vendor cloud API,
posts a Feishu card with a "Lock all" button when any device is unlocked, and
locks the remaining unlocked devices when the button is pressed.`,
}

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	rootCmd.AddCommand(
		newWatchCmd(),
		newStatusCmd(),
		newLockCmd(),
	)
	_ = envload.Ensure()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("lockwatch command failed")
	}
}
