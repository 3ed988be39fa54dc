package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jvetere1999/passion-os-sub009/config"
	"github.com/jvetere1999/passion-os-sub009/core/analysis"
	"github.com/jvetere1999/passion-os-sub009/core/codec"
	"github.com/jvetere1999/passion-os-sub009/core/waveform"
)

var (
	waveformBars int
	waveformJSON bool
)

var waveformCmd = &cobra.Command{
	Use:   "waveform [file]",
	Short: "Extract waveform peaks from a local audio file",
	Long:  `Decodes a local audio file and prints its peak waveform, one bar per column.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		cfg := config.Load()

		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", path, err)
		}

		var decoder codec.Decoder
		if cfg.DecoderBackend == "ffmpeg" {
			decoder = codec.NewFFmpegDecoder(cfg.FFmpegPath)
		} else {
			decoder = codec.NewBeepDecoder()
		}

		generator := waveform.NewGenerator(decoder, waveform.Options{Bars: cfg.WaveformBars})
		wave, _ := generator.FromBuffer(context.Background(), data, waveformBars)
		if wave == nil {
			log.Fatalf("Failed to extract waveform from %s", path)
		}

		if waveformJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(wave); err != nil {
				log.Fatalf("Failed to encode waveform: %v", err)
			}
			return
		}

		fmt.Printf("Duration: %s\n", analysis.FormatTime(wave.Duration))
		fmt.Printf("Sample rate: %d Hz\n", wave.SampleRate)
		fmt.Printf("Bars: %d\n\n", len(wave.NormalizedPeaks))

		// Each bar becomes a column of eighth-block characters.
		levels := []rune(" ▁▂▃▄▅▆▇█")
		var sb strings.Builder
		for _, peak := range wave.NormalizedPeaks {
			idx := int(peak * float64(len(levels)-1))
			if idx < 0 {
				idx = 0
			}
			if idx >= len(levels) {
				idx = len(levels) - 1
			}
			sb.WriteRune(levels[idx])
		}
		fmt.Println(sb.String())
	},
}

func init() {
	rootCmd.AddCommand(waveformCmd)

	waveformCmd.Flags().IntVarP(&waveformBars, "bars", "b", 0, "number of bars (0 uses the configured default)")
	waveformCmd.Flags().BoolVar(&waveformJSON, "json", false, "print the waveform as JSON")

	waveformCmd.Example = `  # Print a terminal waveform
  audiolab_server waveform track.mp3

  # 60 bars as JSON
  audiolab_server waveform -b 60 --json track.mp3`
}
