package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tbourn/rag-chat-backend/internal/config"
	"github.com/tbourn/rag-chat-backend/internal/seed"
	"github.com/tbourn/rag-chat-backend/internal/services"
	"github.com/tbourn/rag-chat-backend/internal/sysutil"
)

var seedFile string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the store schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		sysutil.ConfigureLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.OTEL.ServiceName, cfg.LogPretty)

		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		cmd.Printf("%s schema up to date\n", cfg.Store.Driver)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the business documents when no system documents exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		sysutil.ConfigureLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.OTEL.ServiceName, cfg.LogPretty)

		cat := seed.Default()
		if seedFile != "" {
			data, err := os.ReadFile(seedFile)
			if err != nil {
				return err
			}
			if cat, err = seed.Parse(data); err != nil {
				return err
			}
		}

		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		docs := &services.DocumentService{Store: st}
		n, err := docs.Seed(cmd.Context(), cat)
		if err != nil {
			return err
		}
		cmd.Printf("seeded %d documents\n", n)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "TOML catalogue to seed instead of the built-in one")
	rootCmd.AddCommand(migrateCmd, seedCmd)
}
