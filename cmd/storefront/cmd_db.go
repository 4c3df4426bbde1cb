package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/database/seeders"
	"github.com/shashiranjanraj/storefront/pkg/app"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

func printNames(verb string, names []string) {
	if len(names) == 0 {
		fmt.Println("Nothing to do.")
		return
	}
	for _, n := range names {
		fmt.Printf("%s  %s\n", verb, n)
	}
}

// storefront migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.BootDB(); err != nil {
			return err
		}
		ran, err := migration.New(database.DB).Run()
		printNames(styleOK.Render("migrated"), ran)
		return err
	},
}

// storefront migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.BootDB(); err != nil {
			return err
		}
		rolled, err := migration.New(database.DB).Rollback()
		printNames(styleWarn.Render("rolled back"), rolled)
		return err
	},
}

// storefront migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.BootDB(); err != nil {
			return err
		}
		statuses, err := migration.New(database.DB).Status()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
		for _, s := range statuses {
			ran := styleWarn.Render("no")
			batch := "-"
			if s.Ran {
				ran = styleOK.Render("yes")
				batch = fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, s.Name)
		}
		return w.Flush()
	},
}

// storefront seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.BootDB(); err != nil {
			return err
		}
		fmt.Println("Running seeders:", seeders.Names())
		if err := seeders.RunAll(database.DB); err != nil {
			return err
		}
		fmt.Println(styleOK.Render("Seeding complete."))
		return nil
	},
}
