package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/providers"
	"github.com/shashiranjanraj/storefront/pkg/app"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

var (
	queueWorkersFlag int
	failedLimitFlag  int
	runTaskFlag      string
)

// storefront queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start the queue worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdown, err := app.Boot(ctx)
		if err != nil {
			return err
		}
		defer shutdown()

		workers := queueWorkersFlag
		if workers < 1 {
			workers = 5
		}

		fmt.Printf("Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		queue.StartWorkers(ctx, workers).Wait()
		fmt.Println("Queue worker stopped.")
		return nil
	},
}

// storefront queue:failed
var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List jobs that exhausted their retries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.BootDB(); err != nil {
			return err
		}
		rows, err := queue.ListFailed(database.DB, failedLimitFlag)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println(styleOK.Render("No failed jobs."))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tJOB\tATTEMPTS\tFAILED AT\tERROR")
		for _, r := range rows {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", r.ID, r.JobType, r.Attempts, r.FailedAt.Format("2006-01-02 15:04:05"), styleWarn.Render(r.Error))
		}
		return w.Flush()
	},
}

// storefront schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler, or run one task with --task",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdown, err := app.Boot(ctx)
		if err != nil {
			return err
		}
		defer shutdown()

		s := providers.Boot()
		defer s.Shutdown()

		if runTaskFlag != "" {
			return s.Scheduler.RunNow(ctx, runTaskFlag)
		}

		fmt.Println("Registered scheduled tasks:")
		for _, t := range s.Scheduler.List() {
			fmt.Println("  •", t)
		}
		fmt.Println("Scheduler started. Press Ctrl+C to stop.")
		s.Scheduler.Start(ctx)
		fmt.Println("Scheduler stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 5, "Number of concurrent workers")
	queueFailedCmd.Flags().IntVarP(&failedLimitFlag, "limit", "n", 20, "How many failures to show")
	scheduleRunCmd.Flags().StringVar(&runTaskFlag, "task", "", "Run a single task by name and exit")
}
