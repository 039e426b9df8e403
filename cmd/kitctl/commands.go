package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/kitledger/internal/domain/catalog"
	"github.com/mamadbah2/kitledger/internal/domain/models"
	"github.com/mamadbah2/kitledger/internal/service/commands"
)

// Exporter renders the PDF report of one equipment.
type Exporter interface {
	Export(ctx context.Context, equipment models.Equipment) (models.Report, error)
}

type app struct {
	commands commands.Dispatcher
	reports  Exporter
	catalog  *catalog.Catalog
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "kitctl",
		Short:         "Operate the sequencing kit inventory ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		a.equipmentCommand(),
		a.stockCommand(),
		a.historyCommand(),
		a.mutationCommand("deduct", "Remove units of a kit and count one usage", a.commands.Deduct),
		a.mutationCommand("add", "Add units to a kit", a.commands.Add),
		a.exportCommand(),
	)
	return root
}

func (a *app) equipmentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "equipment",
		Short: "List equipment and their catalog kits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "EQUIPMENT\tKITS")
			for _, equipment := range a.catalog.Equipments() {
				kits, _ := a.catalog.Kits(equipment)
				fmt.Fprintf(w, "%s\t%d\n", equipment, len(kits))
			}
			return w.Flush()
		},
	}
}

func (a *app) stockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stock <equipment>",
		Short: "Show the stock table of an equipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			equipment, err := a.catalog.Resolve(args[0])
			if err != nil {
				return err
			}
			snap, err := a.commands.Snapshot(cmd.Context(), equipment)
			if err != nil {
				return err
			}
			return printStock(cmd.OutOrStdout(), snap.Stock, snap.Total)
		},
	}
}

func (a *app) historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <equipment>",
		Short: "Show how many deductions each kit has had",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			equipment, err := a.catalog.Resolve(args[0])
			if err != nil {
				return err
			}
			snap, err := a.commands.Snapshot(cmd.Context(), equipment)
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "KIT\tFREQUENCIA")
			for _, record := range snap.History.Records {
				fmt.Fprintf(w, "%s\t%d\n", record.Kit, record.Frequency)
			}
			return w.Flush()
		},
	}
}

type mutation func(ctx context.Context, equipment models.Equipment, kit string, amount int) (commands.Outcome, error)

func (a *app) mutationCommand(use, short string, run mutation) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <equipment> <kit> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			equipment, err := a.catalog.Resolve(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("amount must be an integer: %q", args[2])
			}

			out, err := run(cmd.Context(), equipment, args[1], amount)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			return printStock(cmd.OutOrStdout(), out.Stock, out.Total)
		},
	}
}

func (a *app) exportCommand() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export <equipment>",
		Short: "Write the PDF report of an equipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			equipment, err := a.catalog.Resolve(args[0])
			if err != nil {
				return err
			}
			report, err := a.reports.Export(cmd.Context(), equipment)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			path := filepath.Join(outDir, report.Filename)
			if err := os.WriteFile(path, report.Data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "directory to write the PDF into")
	return cmd
}

func printStock(out io.Writer, table models.StockTable, total int) error {
	w := newTable(out)
	fmt.Fprintln(w, "KIT\tQUANTIDADE")
	for _, entry := range table.Entries {
		fmt.Fprintf(w, "%s\t%d\n", entry.Kit, entry.Quantity)
	}
	fmt.Fprintf(w, "Total\t%d\n", total)
	return w.Flush()
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}
