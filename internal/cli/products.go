package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/buildtall-systems/sodamachine/internal/config"
	"github.com/buildtall-systems/sodamachine/internal/machine"
	"github.com/buildtall-systems/sodamachine/internal/orderapi"
	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the Order Service product catalog",
	RunE:  listProducts,
}

func init() {
	rootCmd.AddCommand(productsCmd)
}

func listProducts(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.RequireOrderAPI(); err != nil {
		return err
	}

	client, err := orderapi.NewClient(cfg.OrderAPI.BaseURL, cfg.OrderAPI.Timeout)
	if err != nil {
		return fmt.Errorf("creating order service client: %w", err)
	}

	products, err := client.ListProducts(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing products: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tPRICE")
	for _, p := range products {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Name, machine.FormatAmount(p.PricePerUnit))
	}
	return w.Flush()
}
