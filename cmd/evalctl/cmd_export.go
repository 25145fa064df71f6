package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spec-kit/evaluation-service/internal/export"
	"github.com/spec-kit/evaluation-service/internal/workflow"
)

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid evaluation id %q", raw)
	}
	return id, nil
}

func newExportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:     "export <id>",
		Short:   "Save the evaluation report as a PDF",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := apiFor(cmd).GetEvaluation(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !workflow.AffordancesFor(currentSession(cmd).Actor(), e).CanDownloadPDF {
				return errors.New("the PDF is available once the evaluation is completed and its report generated")
			}

			doc, err := export.RenderPDF(e, export.PDFOptions{OrgName: orgName})
			if err != nil {
				return err
			}
			path := filepath.Join(dir, doc.FileName)
			if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d pages)\n", path, doc.Pages)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "output directory")
	return cmd
}
