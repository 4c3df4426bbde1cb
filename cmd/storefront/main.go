// Command storefront runs the shop's API server, workers and maintenance
// commands.
//
//	storefront serve
//	storefront migrate
//	storefront seed
//	storefront queue:work -w 4
//	storefront dashboard --days 7
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Migrations register themselves from init().
	_ "github.com/shashiranjanraj/storefront/database/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Fashion storefront API",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	// Workers
	rootCmd.AddCommand(queueWorkCmd)
	rootCmd.AddCommand(queueFailedCmd)
	rootCmd.AddCommand(scheduleRunCmd)

	// Reporting
	rootCmd.AddCommand(dashboardCmd)
}
