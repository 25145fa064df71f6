package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/evaluation-service/internal/client"
	"github.com/spec-kit/evaluation-service/internal/dashboard"
	"github.com/spec-kit/evaluation-service/internal/domain"
)

func hrDashboard(cmd *cobra.Command) (*dashboard.HRDashboard, error) {
	return dashboard.NewHRDashboard(apiFor(cmd), currentSession(cmd), dashboardOptions())
}

func newHRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "hr",
		Short:             "HR dashboard",
		PersistentPreRunE: requireRole(domain.RoleHR),
	}

	var search, status string
	var page int
	list := &cobra.Command{
		Use:   "list",
		Short: "List evaluations awaiting or past HR review",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := hrDashboard(cmd)
			if err != nil {
				return err
			}
			p, err := d.Load(cmd.Context(), search, status, page)
			printToasts(cmd.ErrOrStderr(), d.Toasts())
			if err != nil {
				return err
			}
			printPage(cmd.OutOrStdout(), p)
			return nil
		},
	}
	list.Flags().StringVar(&search, "search", "", "filter by intern or manager email")
	list.Flags().StringVar(&status, "status", "", "pending_hr or completed")
	list.Flags().IntVar(&page, "page", 1, "page number")

	var comment string
	var adjustment int
	review := &cobra.Command{
		Use:   "review <id>",
		Short: "Submit the HR review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := hrDashboard(cmd)
			if err != nil {
				return err
			}
			updated, err := d.SubmitReview(cmd.Context(), id, comment, adjustment)
			printToasts(cmd.ErrOrStderr(), d.Toasts())
			if updated != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Evaluation #%d is now %s\n", updated.ID, updated.Status)
			}
			return actionError(err)
		},
	}
	review.Flags().StringVar(&comment, "comment", "", "review comment")
	review.Flags().IntVar(&adjustment, "adjustment", 0, "rating adjustment -2..2")

	generate := &cobra.Command{
		Use:   "generate <id>",
		Short: "Generate the AI report for a completed evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, err := hrDashboard(cmd)
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

	users := &cobra.Command{
		Use:   "users",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := hrDashboard(cmd)
			if err != nil {
				return err
			}
			list, err := d.Users(cmd.Context())
			printToasts(cmd.ErrOrStderr(), d.Toasts())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dashboard.RenderUsers(list))
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <email>",
		Short: "Activate or deactivate an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := hrDashboard(cmd)
			if err != nil {
				return err
			}
			list, err := d.ToggleUser(cmd.Context(), args[0])
			printToasts(cmd.ErrOrStderr(), d.Toasts())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dashboard.RenderUsers(list))
			return nil
		},
	}

	var out string
	exportXLSX := &cobra.Command{
		Use:   "export-xlsx",
		Short: "Download the filtered evaluation list as a spreadsheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := apiFor(cmd).ExportEvaluationsXLSX(cmd.Context(), client.ListParams{Search: search, Status: status})
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("evaluations_%s.xlsx", time.Now().Format("20060102"))
			}
			if err := os.WriteFile(out, raw, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved", out)
			return nil
		},
	}
	exportXLSX.Flags().StringVar(&search, "search", "", "filter by intern or manager email")
	exportXLSX.Flags().StringVar(&status, "status", "", "pending_hr or completed")
	exportXLSX.Flags().StringVarP(&out, "out", "o", "", "output file")

	cmd.AddCommand(list, review, generate, users, toggle, exportXLSX)
	return cmd
}
