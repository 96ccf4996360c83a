package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/bazaar/internal/app"
	"github.com/Additional-Code/bazaar/internal/fixture"
	repo "github.com/Additional-Code/bazaar/internal/repository/commerce"
	"github.com/Additional-Code/bazaar/internal/schema"
	serviceorder "github.com/Additional-Code/bazaar/internal/service/order"
	servicereport "github.com/Additional-Code/bazaar/internal/service/report"
	"github.com/Additional-Code/bazaar/internal/watch"
)

// NewRootCommand builds the root bazaar CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bazaar",
		Short: "Bazaar commerce analytics toolkit",
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newSetupCmd())
	root.AddCommand(newLoadCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newOrderCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newWorkerCmd())

	return root
}

// Execute runs the bazaar CLI.
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := fx.New(app.Module)
			if err := application.Start(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return application.Stop(stopCtx)
		},
	}
}

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create collections with validators and build indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var prov *schema.Provisioner
			opts := fx.Options(app.Core, schema.Module, fx.Populate(&prov))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := prov.Provision(ctx); err != nil {
					return err
				}
				if err := prov.EnsureIndexes(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "collections and indexes ready")
				return nil
			})
		},
	}
}

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the JSON fixtures and seed id counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				loader *fixture.Loader
				store  *repo.Repository
			)
			opts := fx.Options(app.Core, fixture.Module, fx.Populate(&loader, &store))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := loader.LoadAll(ctx); err != nil {
					return err
				}
				if err := store.SeedCounters(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "fixtures loaded")
				return nil
			})
		},
	}
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run analytical reports",
	}

	runCmd := &cobra.Command{
		Use:   "run [name ...]",
		Short: "Run the named reports (all when none given) and print rows as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = servicereport.Names()
			}
			var svc *servicereport.Service
			opts := fx.Options(app.Core, fx.Populate(&svc))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				for _, name := range names {
					rows, err := svc.Run(ctx, name)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", name)
					if err := enc.Encode(rows); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	chartsCmd := &cobra.Command{
		Use:   "charts",
		Short: "Render the chartable reports to image files",
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc *servicereport.Service
			opts := fx.Options(app.Core, fx.Populate(&svc))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				paths, err := svc.RenderCharts(ctx)
				if err != nil {
					return err
				}
				for _, path := range paths {
					fmt.Fprintln(cmd.OutOrStdout(), path)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(runCmd, chartsCmd)
	return cmd
}

func newOrderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Manage orders",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order with its line items in one transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			customerID, _ := cmd.Flags().GetInt64("customer")
			rawItems, _ := cmd.Flags().GetStringSlice("item")

			lines, err := parseLineItems(rawItems)
			if err != nil {
				return err
			}

			var svc *serviceorder.Service
			opts := fx.Options(app.Core, fx.Populate(&svc))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				order, items, err := svc.Create(ctx, customerID, lines)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "order %d created with %d items\n", order.OrderID, len(items))
				return nil
			})
		},
	}
	createCmd.Flags().Int64("customer", 0, "Customer id placing the order")
	createCmd.Flags().StringSlice("item", nil, "Line item as product:quantity:price (repeatable)")
	_ = createCmd.MarkFlagRequired("customer")
	_ = createCmd.MarkFlagRequired("item")

	cmd.AddCommand(createCmd)
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Tail the orders change stream until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			var watcher *watch.Watcher
			opts := fx.Options(app.Core, watch.Module, fx.Populate(&watcher))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				return watcher.Run(ctx)
			})
		},
	}
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run worker engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := fx.New(app.Worker)
			if err := application.Start(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return application.Stop(stopCtx)
		},
	})
	return cmd
}

func parseLineItems(raw []string) ([]serviceorder.LineItem, error) {
	lines := make([]serviceorder.LineItem, 0, len(raw))
	for _, item := range raw {
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid item %q: want product:quantity:price", item)
		}
		productID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid product id in item %q: %w", item, err)
		}
		quantity, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in item %q: %w", item, err)
		}
		price, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price in item %q: %w", item, err)
		}
		lines = append(lines, serviceorder.LineItem{ProductID: productID, Quantity: quantity, Price: price})
	}
	return lines, nil
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
