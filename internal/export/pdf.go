// Package export renders evaluations as downloadable documents.
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"

	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/workflow"
)

const (
	margin         = 20.0
	reportPending  = "AI Analysis pending."
	noHRComment    = "No additional comments."
	defaultOrgName = "Algo8.ai"
	footerFormat   = "Confidential - %s Intern Management System - Page %d of %s"
)

// PDFOptions controls branding and encoding of the report document.
type PDFOptions struct {
	OrgName            string
	DisableCompression bool
}

// Document is a rendered file ready to be saved or streamed.
type Document struct {
	FileName string
	Pages    int
	Data     []byte
}

// FileName names the PDF for an evaluation: the org name up to its first
// non-alphanumeric character, then _Report_Eval_<id>.pdf.
func FileName(org string, id int64) string {
	prefix := strings.TrimSpace(org)
	if i := strings.IndexFunc(prefix, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }); i >= 0 {
		prefix = prefix[:i]
	}
	if prefix == "" {
		prefix = "Evaluation"
	}
	return fmt.Sprintf("%s_Report_Eval_%d.pdf", prefix, id)
}

// Footer is the text printed at the bottom of page i of n.
func Footer(org string, page, pages int) string {
	return fmt.Sprintf(footerFormat, org, page, strconv.Itoa(pages))
}

// RenderPDF draws the two-section report: evaluation details on page one,
// the narrative analysis from page two on. It has no side effects.
func RenderPDF(e *domain.Evaluation, opts PDFOptions) (*Document, error) {
	if e == nil {
		return nil, fmt.Errorf("render pdf: nil evaluation")
	}
	org := strings.TrimSpace(opts.OrgName)
	if org == "" {
		org = defaultOrgName
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!opts.DisableCompression)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	textWidth := pageWidth - 2*margin

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf(footerFormat, org, pdf.PageNo(), "{nb}")), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	drawSummary(pdf, tr, e, org, pageWidth, textWidth)

	pdf.AddPage()
	drawAnalysis(pdf, tr, e, pageWidth, textWidth)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return &Document{FileName: FileName(org, e.ID), Pages: pdf.PageCount(), Data: buf.Bytes()}, nil
}

func drawSummary(pdf *fpdf.Fpdf, tr func(string) string, e *domain.Evaluation, org string, pageWidth, textWidth float64) {
	pdf.SetFillColor(30, 41, 59)
	pdf.Rect(0, 0, pageWidth, 40, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.Text(margin, 25, tr(org))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(margin, 35, "INTERN PERFORMANCE REPORT")

	pdf.SetDrawColor(99, 102, 241)
	pdf.SetLineWidth(1)
	pdf.Line(margin, 45, pageWidth-margin, 45)

	pdf.SetTextColor(30, 41, 59)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(margin, 55, fmt.Sprintf("Evaluation ID: #%d", e.ID))
	pdf.Text(pageWidth-margin-40, 55, "Date: "+formatDate(e))

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(margin, 70, "Participant Information")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(margin, 80, tr("Intern Email: "+e.InternID))
	pdf.Text(margin, 85, tr("Manager Email: "+e.ManagerID))
	pdf.Text(margin, 90, fmt.Sprintf("Duration: %d Months", e.MonthsWorked))

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(margin, 105, "Ratings")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(margin, 112, fmt.Sprintf("Manager Rating: %d/5", e.Rating))
	pdf.Text(margin, 117, "HR Adjustment: "+formatAdjustment(e.HRRatingAdjustment))
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(margin, 125, fmt.Sprintf("Final Performance Score: %d/5", workflow.FinalScore(e.Rating, e.HRRatingAdjustment)))

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(margin, 140, "Management Comments")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(margin, 143)
	pdf.MultiCell(textWidth, 5, tr("Manager: "+e.ManagerComment), "", "L", false)
	pdf.Ln(5)
	hr := noHRComment
	if e.HRComment != nil && strings.TrimSpace(*e.HRComment) != "" {
		hr = *e.HRComment
	}
	pdf.MultiCell(textWidth, 5, tr("HR: "+hr), "", "L", false)
}

func drawAnalysis(pdf *fpdf.Fpdf, tr func(string) string, e *domain.Evaluation, pageWidth, textWidth float64) {
	pdf.SetFillColor(30, 41, 59)
	pdf.Rect(0, 0, pageWidth, 20, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(margin, 13, "AI Generated Analysis")

	pdf.SetTextColor(30, 41, 59)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(margin, 31)
	text := reportPending
	if e.HasReport() {
		text = *e.Report
	}
	pdf.MultiCell(textWidth, 5, tr(text), "", "L", false)
}

func formatDate(e *domain.Evaluation) string {
	if e.CreatedAt.IsZero() {
		return "-"
	}
	return e.CreatedAt.Format("2006-01-02")
}

func formatAdjustment(adj *int) string {
	if adj == nil {
		return "None"
	}
	return fmt.Sprintf("%+d", *adj)
}
