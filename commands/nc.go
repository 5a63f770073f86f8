package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-ssgg-monitor/internal/application/dashboard"
)

var (
	// list filters
	ncYear  string
	ncMonth string
	ncDay   string
	ncArea  string
	ncState string

	// add and edit form
	ncForm          dashboard.NCInput
	ncOriginalFolio string
)

var ncCmd = &cobra.Command{
	Use:   "nc",
	Short: "Non-conformities registry",
}

var ncListCmd = &cobra.Command{
	Use:   "list",
	Short: "Pareto and detail of non-conformities",
	RunE:  runNCList,
}

var ncAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a non-conformity (ADMIN only)",
	RunE:  runNCAdd,
}

var ncEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Update a non-conformity (ADMIN only)",
	Long: `Updates the record identified by --original-folio. Fields not given keep
their current values; --folio renames the record.`,
	RunE: runNCEdit,
}

func init() {
	rootCmd.AddCommand(ncCmd)
	ncCmd.AddCommand(ncListCmd, ncAddCmd, ncEditCmd)

	ncListCmd.Flags().StringVar(&ncYear, "year", "", "Year (e.g., 2025)")
	ncListCmd.Flags().StringVar(&ncMonth, "month", "", "Month number or name; requires --year")
	ncListCmd.Flags().StringVar(&ncDay, "day", "", "Day of month; requires --month")
	ncListCmd.Flags().StringVar(&ncArea, "area", "", "Responsible area")
	ncListCmd.Flags().StringVar(&ncState, "state", "", "State; requires --area")

	for _, c := range []*cobra.Command{ncAddCmd, ncEditCmd} {
		c.Flags().StringVar(&ncForm.Folio, "folio", "", "Folio number")
		c.Flags().StringVar(&ncForm.Year, "year", "", "Year")
		c.Flags().StringVar(&ncForm.Month, "month", "", "Month number or name")
		c.Flags().StringVar(&ncForm.Date, "date", "", "Detection date (yyyy-mm-dd)")
		c.Flags().StringVar(&ncForm.Area, "area", "", "Responsible area")
		c.Flags().StringVar(&ncForm.Type, "type", "", "Non-conformity type")
		c.Flags().StringVar(&ncForm.Observation, "observation", "", "Observation")
		c.Flags().StringVar(&ncForm.State, "state", "", "State")
	}
	ncEditCmd.Flags().StringVar(&ncOriginalFolio, "original-folio", "", "Folio of the record to edit")
	_ = ncEditCmd.MarkFlagRequired("original-folio")
}

func runNCList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	month, err := monthFullName(ncMonth)
	if err != nil {
		return err
	}

	page := dashboard.NewNonConformityPage(a.api)
	view, err := buildView(ctx, page, selection(
		"year", ncYear,
		"month", month,
		"day", ncDay,
		"area", ncArea,
		"state", ncState,
	))
	if err != nil {
		return err
	}
	return a.render(cmd, view)
}

// formInput normalises the month of the form flags.
func formInput() (dashboard.NCInput, error) {
	in := ncForm
	month, err := monthFullName(in.Month)
	if err != nil {
		return in, err
	}
	in.Month = month
	return in, nil
}

func runNCAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	in, err := formInput()
	if err != nil {
		return err
	}
	page := dashboard.NewNonConformityPage(a.api)
	if err := page.Create(ctx, a.session, in); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "No conformidad %s agregada correctamente\n", in.Folio)
	return nil
}

func runNCEdit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	in, err := formInput()
	if err != nil {
		return err
	}
	page := dashboard.NewNonConformityPage(a.api)
	if err := page.Edit(ctx, a.session, ncOriginalFolio, in); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "No conformidad %s actualizada correctamente\n", ncOriginalFolio)
	return nil
}
