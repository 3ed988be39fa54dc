package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jvetere1999/passion-os-sub009/config"
	"github.com/jvetere1999/passion-os-sub009/storage"
)

var (
	minioPrefix    string
	minioStats     bool
	minioRecursive bool
	minioDelete    bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO bucket administration",
	Long:  `Inspects and manages the blob bucket: list objects, show stats, print the directory tree, or delete a prefix.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Connecting to MinIO...")

		cfg := config.Load()
		fmt.Printf("MinIO config: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		client, err := storage.NewMinioClient(
			cfg.MinioEndpoint,
			cfg.MinioAccessKey,
			cfg.MinioSecretKey,
			cfg.MinioBucket,
			cfg.MinioUseSSL,
		)
		if err != nil {
			log.Fatalf("Failed to create MinIO client: %v", err)
		}

		switch {
		case minioDelete:
			if minioPrefix == "" {
				log.Fatal("Delete requires a prefix")
			}
			fmt.Printf("\nDeleting prefix: %s\n", minioPrefix)
			if err := client.DeleteDirectory(minioPrefix); err != nil {
				log.Fatalf("Failed to delete prefix: %v", err)
			}
		case minioRecursive:
			fmt.Printf("\nListing directory tree (prefix: %q)...\n", minioPrefix)
			if err := client.ListObjectsRecursive(minioPrefix); err != nil {
				log.Fatalf("Failed to list directory tree: %v", err)
			}
		case minioStats:
			fmt.Println("\nFetching bucket stats...")
			if err := client.PrintBucketStats(); err != nil {
				log.Fatalf("Failed to fetch bucket stats: %v", err)
			}
		default:
			fmt.Printf("\nListing objects (prefix: %q)...\n", minioPrefix)
			if err := client.ListObjects(minioPrefix); err != nil {
				log.Fatalf("Failed to list objects: %v", err)
			}
		}

		fmt.Println("\nDone.")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "filter objects by prefix, or the prefix to delete")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "show bucket stats")
	minioCmd.Flags().BoolVarP(&minioRecursive, "recursive", "r", false, "print the directory tree")
	minioCmd.Flags().BoolVarP(&minioDelete, "delete", "d", false, "delete the prefix and everything under it")

	minioCmd.Example = `  # List all objects
  audiolab_server minio

  # Filter by prefix
  audiolab_server minio -p "audio/"

  # Show bucket stats
  audiolab_server minio -s

  # Print the directory tree
  audiolab_server minio -r -p "audio/"

  # Delete a prefix and everything under it
  audiolab_server minio -d -p "audio/"`
}
