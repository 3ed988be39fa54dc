package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jvetere1999/passion-os-sub009/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the AudioLab server",
	Long:  `Starts the AudioLab HTTP server: playback session API, track library, analysis and waveform endpoints, and the WebSocket state feed.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
