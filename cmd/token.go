package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jvetere1999/passion-os-sub009/config"
	"github.com/jvetere1999/passion-os-sub009/core/auth"
)

var (
	tokenUserID   int64
	tokenUsername string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token",
	Long:  `Mints a signed bearer token for the configured AUTH_JWT_SECRET, for use against a server running with auth enabled.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		auth.Configure(cfg.AuthJWTSecret)

		if !auth.Enabled() {
			log.Fatal("AUTH_JWT_SECRET is not set; the server runs unauthenticated and needs no token")
		}

		token, err := auth.GenerateToken(tokenUserID, tokenUsername)
		if err != nil {
			log.Fatalf("Failed to generate token: %v", err)
		}

		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().Int64VarP(&tokenUserID, "user", "u", 1, "user id to embed in the token")
	tokenCmd.Flags().StringVarP(&tokenUsername, "name", "n", "dev", "username to embed in the token")
}
