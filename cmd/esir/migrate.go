package main

import (
	"log"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, _, err := openDB(cmd.Context()); err != nil {
			return err
		}
		log.Printf("schema up to date")
		return nil
	},
}
