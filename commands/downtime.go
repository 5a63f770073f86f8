package commands

import (
	"github.com/spf13/cobra"

	"github.com/penwyp/go-ssgg-monitor/internal/application/dashboard"
)

var (
	downtimeYear      string
	downtimeMonth     string
	downtimeArea      string
	downtimeSection   string
	downtimeTPM       string
	downtimeDetention string
	downtimeDay       string
)

var downtimeCmd = &cobra.Command{
	Use:   "downtime",
	Short: "Line stoppages attributed to SSGG",
	Long: `Without a year, prints the Pareto of stoppage types over the last seven days.
With a year, prints minutes and counts per month, per day or per area,
plus the area pie and the detail table.`,
	RunE: runDowntime,
}

func init() {
	rootCmd.AddCommand(downtimeCmd)

	downtimeCmd.Flags().StringVar(&downtimeYear, "year", "", "Year (e.g., 2025)")
	downtimeCmd.Flags().StringVar(&downtimeMonth, "month", "", "Month number or abbreviation (e.g., 3 or Mar); requires --year")
	downtimeCmd.Flags().StringVar(&downtimeArea, "area", "", "Area; requires --year")
	downtimeCmd.Flags().StringVar(&downtimeSection, "section", "", "Section; requires --area")
	downtimeCmd.Flags().StringVar(&downtimeTPM, "tpm", "", "TPM stoppage type; requires --section")
	downtimeCmd.Flags().StringVar(&downtimeDetention, "detention", "", "Stoppage cause; requires --tpm")
	downtimeCmd.Flags().StringVar(&downtimeDay, "day", "", "Day of month; requires --month")
}

func runDowntime(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	month, err := monthShort(downtimeMonth)
	if err != nil {
		return err
	}

	loader := dashboard.NewPeriodLoader(a.api, a.snapshotStore(), a.tp)
	page := dashboard.NewDowntimePage(loader, &a.settings.Dashboard, a.tp)

	view, err := buildView(ctx, page, selection(
		"year", downtimeYear,
		"month", month,
		"area", downtimeArea,
		"section", downtimeSection,
		"tpm", downtimeTPM,
		"detention", downtimeDetention,
		"day", downtimeDay,
	))
	if err != nil {
		return err
	}
	return a.render(cmd, view)
}
