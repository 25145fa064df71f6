package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/workflow"
)

// XLSXContentType is the MIME type of the evaluations spreadsheet.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the worksheet holding exported evaluations.
const SheetName = "Evaluations"

var xlsxHeadings = []string{
	"ID", "Intern", "Manager", "Months Worked", "Rating",
	"HR Adjustment", "Final Score", "Status", "Has Report", "Created At",
}

// WriteEvaluationsXLSX writes one row per evaluation under a heading row.
func WriteEvaluationsXLSX(w io.Writer, evaluations []domain.Evaluation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	for col, heading := range xlsxHeadings {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, heading); err != nil {
			return err
		}
	}

	for i, e := range evaluations {
		adjustment := ""
		if e.HRRatingAdjustment != nil {
			adjustment = fmt.Sprintf("%+d", *e.HRRatingAdjustment)
		}
		hasReport := "No"
		if e.HasReport() {
			hasReport = "Yes"
		}
		created := ""
		if !e.CreatedAt.IsZero() {
			created = e.CreatedAt.UTC().Format("2006-01-02 15:04")
		}
		values := []any{
			e.ID,
			e.InternID,
			e.ManagerID,
			e.MonthsWorked,
			e.Rating,
			adjustment,
			workflow.FinalScore(e.Rating, e.HRRatingAdjustment),
			workflow.Badge(e.Status),
			hasReport,
			created,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}
