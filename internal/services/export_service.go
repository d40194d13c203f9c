package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"loan-compare/internal/models"

	"github.com/xuri/excelize/v2"
)

const applicationsSheet = "Applications"

var applicationColumns = []string{
	"Application ID",
	"Applicant",
	"Email",
	"Phone",
	"Loan Type",
	"Loan Amount",
	"Monthly Income",
	"Credit Score",
	"Employment",
	"Status",
	"Submitted At",
	"Created At",
}

// ExportService renders applications as an XLSX workbook with one row per application
type ExportService struct{}

func NewExportService() ExportServiceInterface {
	return &ExportService{}
}

func (s *ExportService) WriteApplications(ctx context.Context, apps []*models.LoanApplication, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", applicationsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(applicationsSheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}
	if err := sw.SetColWidth(1, len(applicationColumns), 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	header := make([]interface{}, len(applicationColumns))
	for i, title := range applicationColumns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: title}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, app := range apps {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, applicationRow(app)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func applicationRow(app *models.LoanApplication) []interface{} {
	var creditScore interface{}
	if app.CreditScore != nil {
		creditScore = *app.CreditScore
	}
	var submitted interface{}
	if app.SubmittedAt != nil {
		submitted = app.SubmittedAt.UTC().Format(time.RFC3339)
	}

	return []interface{}{
		app.ID.String(),
		app.ApplicantName,
		app.Email,
		app.Phone,
		LoanTypeLabel(app.LoanType),
		app.LoanAmount.InexactFloat64(),
		app.MonthlyIncome.InexactFloat64(),
		creditScore,
		app.EmploymentStatus,
		app.Status,
		submitted,
		app.CreatedAt.UTC().Format(time.RFC3339),
	}
}
