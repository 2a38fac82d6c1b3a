// Command ragchat runs the retrieval-augmented chat API and its
// maintenance tasks.
//
//	ragchat            same as "ragchat serve"
//	ragchat serve      start the HTTP server
//	ragchat migrate    create or update the store schema
//	ragchat seed       insert the business documents when none exist
//	ragchat version    print the build version
//
// Configuration comes from the environment; a .env file is loaded first
// when present.
//
// @title       RAG Chat Backend API
// @version     1.0
// @description Document upload, retrieval-augmented chat and system prompt management.
// @BasePath    /api
package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var envFile string

var rootCmd = &cobra.Command{
	Use:           "ragchat",
	Short:         "Retrieval-augmented chat backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return loadEnv(envFile)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")
}

// loadEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("error:", err)
		os.Exit(1)
	}
}
