package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/evaluation-service/internal/dashboard"
	"github.com/spec-kit/evaluation-service/internal/domain"
)

func newInternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "intern",
		Short:             "Intern dashboard",
		PersistentPreRunE: requireRole(domain.RoleIntern),
	}

	var page int
	list := &cobra.Command{
		Use:   "list",
		Short: "List your evaluations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := dashboard.NewInternDashboard(apiFor(cmd), currentSession(cmd), dashboardOptions())
			if err != nil {
				return err
			}
			p, err := d.Load(cmd.Context(), page)
			printToasts(cmd.ErrOrStderr(), d.Toasts())
			if err != nil {
				return err
			}
			printPage(cmd.OutOrStdout(), p)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")

	var comment string
	feedback := &cobra.Command{
		Use:   "feedback <id>",
		Short: "Submit your feedback on a pending evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := dashboard.NewInternDashboard(apiFor(cmd), currentSession(cmd), dashboardOptions())
			if err != nil {
				return err
			}
			updated, err := d.SubmitFeedback(cmd.Context(), id, comment)
			printToasts(cmd.ErrOrStderr(), d.Toasts())
			if updated != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Evaluation #%d is now %s\n", updated.ID, updated.Status)
			}
			return actionError(err)
		},
	}
	feedback.Flags().StringVar(&comment, "comment", "", "your feedback")

	cmd.AddCommand(list, feedback)
	return cmd
}
