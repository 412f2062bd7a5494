package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"courier-backoffice-service/internal/adapters/spreadsheet"
	"courier-backoffice-service/internal/app"
	"courier-backoffice-service/internal/config"
	"courier-backoffice-service/internal/domain"
	"courier-backoffice-service/internal/platform/obs"
	"courier-backoffice-service/internal/services"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dbtool",
		Short:         "Schema, seed and spreadsheet import tasks for the back-office store",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd(), newImportCmd())
	return root
}

// withStore loads config, opens the configured store, migrates it and runs fn.
func withStore(ctx context.Context, fn func(*app.Store, config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	obs.InitLogger(os.Stderr, cfg.LogLevel)

	if cfg.StoreDriver == config.DriverMemory {
		return fmt.Errorf("dbtool needs a persistent store, STORE_DRIVER=%s", cfg.StoreDriver)
	}

	store, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	return fn(store, cfg)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(*app.Store, config.Config) error {
				slog.Info("schema ready")
				return nil
			})
		},
	}
}

func newSeedCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load bootstrap users, clients and orders from a seed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(s *app.Store, cfg config.Config) error {
				if path == "" {
					path = cfg.SeedPath
				}
				if err := s.SeedFrom(cmd.Context(), path, time.Now().UTC()); err != nil {
					return err
				}
				slog.Info("seeding complete")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "seed file (default: SEED_PATH)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var clientsPath, ordersPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import clients and orders from xlsx workbooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientsPath == "" && ordersPath == "" {
				return fmt.Errorf("at least one of --clients or --orders is required")
			}

			var (
				clientRows []domain.ClientImportRow
				orderRows  []domain.OrderImportRow
				err        error
			)
			if clientsPath != "" {
				if clientRows, err = spreadsheet.ReadClientRows(clientsPath); err != nil {
					return err
				}
			}
			if ordersPath != "" {
				if orderRows, err = spreadsheet.ReadOrderRows(ordersPath); err != nil {
					return err
				}
			}

			return withStore(cmd.Context(), func(s *app.Store, _ config.Config) error {
				report, err := services.NewImporter(s.Clients, s.Orders).Import(cmd.Context(), clientRows, orderRows)
				if err != nil {
					return err
				}
				printReport(cmd, report)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&clientsPath, "clients", "", "client workbook (DNI, Nombres, Dirección, Teléfono, Correo)")
	cmd.Flags().StringVar(&ordersPath, "orders", "", "order workbook (DNI_Cliente, Fecha, Descripción, Estado)")
	return cmd
}

func printReport(cmd *cobra.Command, r domain.ImportReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "clientes insertados: %d\n", r.ClientsInserted)
	fmt.Fprintf(out, "órdenes insertadas: %d\n", r.OrdersInserted)
	if len(r.Skipped) == 0 {
		return
	}
	fmt.Fprintf(out, "filas omitidas: %d\n", len(r.Skipped))
	for _, s := range r.Skipped {
		fmt.Fprintf(out, "  %s fila %d: %s\n", s.File, s.Line, s.Reason)
	}
}
