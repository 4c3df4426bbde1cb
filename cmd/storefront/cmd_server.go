package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/shashiranjanraj/storefront/app/providers"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/app/rpc"
	"github.com/shashiranjanraj/storefront/pkg/app"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

var (
	serveWorkers  int
	serveSchedule bool
)

// application wires the storefront's routes, gRPC service and background
// loops onto the framework runner.
func application(s *providers.Services) *app.Application {
	return app.New().
		Routes(func(r *router.Router) { routes.RegisterAPI(r, s) }).
		GRPC(func(srv *grpc.Server) { rpc.Register(srv, rpc.NewService(s.Catalog, s.Orders)) }).
		Background(s.Hub.Run)
}

// storefront serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP and gRPC servers",
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

		a := application(s)
		if serveWorkers > 0 {
			a.Background(func(ctx context.Context) { queue.StartWorkers(ctx, serveWorkers).Wait() })
		}
		if serveSchedule {
			a.Background(s.Scheduler.Start)
		}
		return a.Serve(ctx)
	},
}

// storefront route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		infos := application(providers.New()).RouteTable()
		if len(infos) == 0 {
			fmt.Println("No named routes registered.")
			return nil
		}

		sort.Slice(infos, func(i, j int) bool {
			if infos[i].Path != infos[j].Path {
				return infos[i].Path < infos[j].Path
			}
			return infos[i].Method < infos[j].Method
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&serveWorkers, "workers", "w", 2, "In-process queue workers (0 to rely on queue:work)")
	serveCmd.Flags().BoolVar(&serveSchedule, "schedule", false, "Also run the task scheduler")
}
