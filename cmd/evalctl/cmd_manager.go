package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/evaluation-service/internal/dashboard"
	"github.com/spec-kit/evaluation-service/internal/domain"
)

func managerDashboard(cmd *cobra.Command) (*dashboard.ManagerDashboard, error) {
	return dashboard.NewManagerDashboard(apiFor(cmd), currentSession(cmd), dashboardOptions())
}

func newManagerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "manager",
		Short:             "Manager dashboard",
		PersistentPreRunE: requireRole(domain.RoleManager),
	}

	var search string
	var page int
	list := &cobra.Command{
		Use:   "list",
		Short: "List evaluations you created",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := managerDashboard(cmd)
			if err != nil {
				return err
			}
			p, err := d.Load(cmd.Context(), search, page)
			printToasts(cmd.ErrOrStderr(), d.Toasts())
			if err != nil {
				return err
			}
			printPage(cmd.OutOrStdout(), p)
			return nil
		},
	}
	list.Flags().StringVar(&search, "search", "", "filter by intern email")
	list.Flags().IntVar(&page, "page", 1, "page number")

	var form dashboard.CreateForm
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an evaluation for an intern",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := managerDashboard(cmd)
			if err != nil {
				return err
			}
			created, err := d.Create(cmd.Context(), form)
			printToasts(cmd.ErrOrStderr(), d.Toasts())
			if created != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Created evaluation #%d\n", created.ID)
			}
			if err != nil {
				return actionError(err)
			}
			printPage(cmd.OutOrStdout(), d.Current())
			return nil
		},
	}
	create.Flags().StringVar(&form.InternID, "intern", "", "intern email")
	create.Flags().IntVar(&form.Rating, "rating", 1, "rating 1-5")
	create.Flags().StringVar(&form.ManagerComment, "comment", "", "manager comment")
	create.Flags().IntVar(&form.MonthsWorked, "months", 1, "months worked")

	generate := &cobra.Command{
		Use:   "generate <id>",
		Short: "Generate the AI report for a completed evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := managerDashboard(cmd)
			if err != nil {
				return err
			}
			text, err := d.GenerateReport(cmd.Context(), id)
			printToasts(cmd.ErrOrStderr(), d.Toasts())
			if text != "" {
				fmt.Fprintln(cmd.OutOrStdout(), text)
			}
			return actionError(err)
		},
	}

	cmd.AddCommand(list, create, generate)
	return cmd
}
