package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jvetere1999/passion-os-sub009/config"
	"github.com/jvetere1999/passion-os-sub009/db"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis connectivity check",
	Long:  `Checks the Redis connection and performs a basic read/write round trip.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Checking Redis connection...")

		cfg := config.Load()
		fmt.Printf("Redis config: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		fmt.Println("Redis connection OK.")

		fmt.Println("Running basic read/write check...")
		if err := db.TestRedis(); err != nil {
			log.Fatalf("Redis read/write check failed: %v", err)
		}
		fmt.Println("Redis read/write check OK.")

		if err := db.CloseRedis(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
		fmt.Println("Redis check complete, connection closed.")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
