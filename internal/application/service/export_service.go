package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mhenders/fieldflow/internal/application/port"
	"github.com/mhenders/fieldflow/internal/domain/entity"
)

const exportSheet = "Submissions"

// exportBatchSize keeps a single export query from loading the whole table
// at once.
const exportBatchSize = 500

// ExportService writes the submissions table to a spreadsheet for the admin
// review screen.
type ExportService interface {
	// ExportSubmissions streams all submissions as an .xlsx workbook to w.
	ExportSubmissions(ctx context.Context, w io.Writer) error
}

type exportServiceImpl struct {
	formRepo port.FormRepository
	logger   Logger
}

// NewExportService creates a new ExportService
func NewExportService(formRepo port.FormRepository, logger Logger) ExportService {
	return &exportServiceImpl{
		formRepo: formRepo,
		logger:   logger,
	}
}

var exportHeader = []interface{}{
	"Job/PO #", "Status", "Rejected", "Forwarded", "Approved",
	"Submitted By", "Submitted At", "Last Workflow Action",
	"Forwarded To", "Rejection Note", "Notified",
}

func (s *exportServiceImpl) ExportSubmissions(ctx context.Context, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := 2
	for offset := 0; ; offset += exportBatchSize {
		forms, err := s.formRepo.List(ctx, exportBatchSize, offset)
		if err != nil {
			s.logger.Error("Failed to list forms for export", "error", err, "offset", offset)
			return fmt.Errorf("list forms: %w", err)
		}
		if len(forms) == 0 {
			break
		}

		for _, form := range forms {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			values := exportRow(form)
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}

		if len(forms) < exportBatchSize {
			break
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("Submissions exported", "rows", row-2)
	return nil
}

func exportRow(form *entity.FormSubmission) []interface{} {
	return []interface{}{
		form.JobPONumber,
		form.Status,
		form.IsRejected,
		form.IsForwarded,
		form.IsApproved,
		form.SubmittedByEmail,
		formatTime(form.SubmittedAt),
		formatTime(form.WorkflowTimestamp),
		form.ForwardedToEmail,
		form.RejectionNote,
		form.HTTPPostSent,
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
