package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jvetere1999/passion-os-sub009/config"
	"github.com/jvetere1999/passion-os-sub009/core/analysis"
	"github.com/jvetere1999/passion-os-sub009/core/codec"
	"github.com/jvetere1999/passion-os-sub009/core/waveform"
	"github.com/jvetere1999/passion-os-sub009/storage"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a local audio file",
	Long:  `Runs tempo and frequency analysis on a local audio file and prints the result. Supports MP3, WAV and FLAC.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		cfg := config.Load()

		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", path, err)
		}
		fmt.Printf("Read %s (%s)\n", path, storage.FormatSize(int64(len(data))))

		var decoder codec.Decoder
		if cfg.DecoderBackend == "ffmpeg" {
			decoder = codec.NewFFmpegDecoder(cfg.FFmpegPath)
		} else {
			decoder = codec.NewBeepDecoder()
		}

		analyzer := analysis.NewAnalyzer(decoder, analysis.Options{
			MaxBytes:   cfg.AnalysisMaxBytes,
			MaxSeconds: cfg.AnalysisMaxSeconds,
			MinBPM:     cfg.TempoMinBPM,
			MaxBPM:     cfg.TempoMaxBPM,
		})

		result := analyzer.AnalyzeAudio(context.Background(), data, func(progress float64) {
			fmt.Printf("\rAnalyzing... %3.0f%%", progress*100)
		})
		fmt.Println()
		if result == nil {
			log.Fatalf("Analysis produced no result for %s", path)
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				log.Fatalf("Failed to encode result: %v", err)
			}
			return
		}

		generator := waveform.NewGenerator(decoder, waveform.Options{Bars: cfg.WaveformBars})
		if wave, _ := generator.FromBuffer(context.Background(), data, 0); wave != nil {
			fmt.Printf("Duration: %s\n", analysis.FormatTime(wave.Duration))
		}

		if result.BPM != nil {
			fmt.Printf("BPM: %.1f", *result.BPM)
			if result.Confidence != nil {
				fmt.Printf(" (confidence %.2f)", *result.Confidence)
			}
			fmt.Println()
		} else {
			fmt.Println("BPM: not found")
		}
		if result.Key != nil {
			fmt.Printf("Key: %s\n", *result.Key)
		}

		if result.Spectrum != nil {
			fmt.Printf("Peak amplitude: %.3f\n", result.Spectrum.PeakAmplitude)
			fmt.Printf("Overall RMS: %.3f\n", result.Spectrum.OverallRMS)
			fmt.Printf("Dynamic range: %.1f dB\n", result.Spectrum.DynamicRange)
			fmt.Printf("Crest factor: %.2f\n", result.Spectrum.CrestFactor)
			fmt.Println("Bands:")
			for _, band := range result.Spectrum.Bands {
				fmt.Printf("  %-6s %5.0f-%5.0f Hz  energy %.3f  peak %.3f  avg %.3f\n",
					band.Name, band.MinHz, band.MaxHz, band.Energy, band.Peak, band.Average)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the raw analysis result as JSON")

	analyzeCmd.Example = `  # Analyze a file and print a summary
  audiolab_server analyze track.mp3

  # Print the raw result as JSON
  audiolab_server analyze --json track.mp3`
}
