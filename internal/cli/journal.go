package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/buildtall-systems/sodamachine/internal/config"
	"github.com/buildtall-systems/sodamachine/internal/db"
	"github.com/buildtall-systems/sodamachine/internal/machine"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent session outcomes",
	RunE:  showJournal,
}

func init() {
	journalCmd.Flags().Int("limit", 20, "number of entries to show")
	journalCmd.Flags().Bool("totals", false, "show amount totals per outcome instead")
	rootCmd.AddCommand(journalCmd)
}

func showJournal(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	totals, _ := cmd.Flags().GetBool("totals")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = database.Close() }()

	if err := database.Migrate(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	if totals {
		sums, err := database.Totals(cmd.Context())
		if err != nil {
			return err
		}
		kinds := make([]string, 0, len(sums))
		for k := range sums {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)

		_, _ = fmt.Fprintln(w, "OUTCOME\tAMOUNT")
		for _, k := range kinds {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", k, machine.FormatAmount(sums[machine.EventKind(k)]))
		}
		return w.Flush()
	}

	entries, err := database.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(w, "TIME\tSOURCE\tOUTCOME\tORDER\tPRODUCT\tAMOUNT")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Source, e.Kind, e.OrderID, e.Product, machine.FormatAmount(e.Amount))
	}
	return w.Flush()
}
