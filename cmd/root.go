package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jvetere1999/passion-os-sub009/server"
)

var rootCmd = &cobra.Command{
	Use:   "audiolab_server",
	Short: "AudioLab is a reference-track playback and analysis service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting AudioLab server...")
		// server.Start handles its own port and logging for startup.
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
