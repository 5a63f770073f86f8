package commands

import (
	"github.com/spf13/cobra"

	"github.com/penwyp/go-ssgg-monitor/internal/application/dashboard"
)

var (
	contactArea  string
	contactYear  string
	contactMonth string
	contactDay   string
)

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Direct-contact percentage per process room",
	RunE:  runContact,
}

func init() {
	rootCmd.AddCommand(contactCmd)

	contactCmd.Flags().StringVar(&contactArea, "area", "", "Process room")
	contactCmd.Flags().StringVar(&contactYear, "year", "", "Year (e.g., 2025)")
	contactCmd.Flags().StringVar(&contactMonth, "month", "", "Month number or name; requires --year")
	contactCmd.Flags().StringVar(&contactDay, "day", "", "Day of month; requires --month")
}

func runContact(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	month, err := monthNumber(contactMonth)
	if err != nil {
		return err
	}

	page := dashboard.NewContactPage(a.api, a.tp)
	view, err := buildView(ctx, page, selection(
		"area", contactArea,
		"year", contactYear,
		"month", month,
		"day", contactDay,
	))
	if err != nil {
		return err
	}
	return a.render(cmd, view)
}
