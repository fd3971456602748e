package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var initdbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the database schema",
	RunE:  runInitDB,
}

func init() {
	rootCmd.AddCommand(initdbCmd)
}

func runInitDB(cmd *cobra.Command, args []string) error {
	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	log.Info("database initialized", zap.String("dsn", cfg.Storage.Hot.DSN))
	fmt.Printf("Database initialized at %s\n", cfg.Storage.Hot.DSN)
	return nil
}
