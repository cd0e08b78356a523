package service

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/avosseler/reimbursement-copilot/dto"
)

const (
	// Sheet and cell layout of the corporate travel expense template.
	expenseSheet = "RKA Seite 1"

	cellTravelerName = "C2"
	cellCostCenter   = "E2"
	cellLocation     = "E3"
	cellDestination  = "C6"
	cellReason       = "C7"

	// Accommodation entries start at row 19, all other expenses at
	// row 29. Column A holds the date, B the running entry number,
	// C the description and E the EUR amount.
	hotelStartRow = 19
	otherStartRow = 29
)

// WorkbookService fills the travel expense template with extracted
// invoice entities.
type WorkbookService struct {
	templateFile string
	outputDir    string
	log          *slog.Logger
}

func NewWorkbookService(templateFile, outputDir string, log *slog.Logger) *WorkbookService {
	return &WorkbookService{
		templateFile: templateFile,
		outputDir:    outputDir,
		log:          log,
	}
}

// Fill writes the trip metadata, expense rows and exchange rate note
// into a copy of the template and saves it under the output directory.
// It returns the path of the written workbook.
func (s *WorkbookService) Fill(meta dto.TripMetadata, entities []dto.InvoiceEntity, rateInfo, outputFile string) (string, error) {
	if _, err := os.Stat(s.templateFile); err != nil {
		return "", fmt.Errorf("%w: %s", dto.ErrTemplateNotFound, s.templateFile)
	}

	wb, err := excelize.OpenFile(s.templateFile)
	if err != nil {
		return "", fmt.Errorf("failed to open template: %w", err)
	}
	defer wb.Close()

	if idx, err := wb.GetSheetIndex(expenseSheet); err != nil || idx < 0 {
		return "", fmt.Errorf("template has no sheet %q", expenseSheet)
	}

	meta.ApplyDefaults()

	header := map[string]string{
		cellTravelerName: meta.TravelerName,
		cellCostCenter:   meta.CostCenter,
		cellLocation:     meta.Location,
		cellDestination:  meta.Destination,
		cellReason:       meta.ReasonForTravel,
	}
	for cell, value := range header {
		if err := wb.SetCellValue(expenseSheet, cell, value); err != nil {
			return "", fmt.Errorf("failed to set %s: %w", cell, err)
		}
	}

	hotelRow := hotelStartRow
	otherRow := otherStartRow
	entryNo := 1
	for _, entity := range entities {
		row := otherRow
		date := entity.IssueDate
		if entity.InvoiceType == "hotel" {
			row = hotelRow
			date = entity.CheckinDate
			hotelRow++
		} else {
			otherRow++
		}

		amount, err := strconv.ParseFloat(entity.TotalAmount, 64)
		if err != nil {
			return "", fmt.Errorf("entity %d has a non-numeric amount %q", entryNo, entity.TotalAmount)
		}

		cells := []struct {
			col   string
			value any
		}{
			{"A", date},
			{"B", entryNo},
			{"C", entity.Description},
			{"E", amount},
		}
		for _, c := range cells {
			if err := wb.SetCellValue(expenseSheet, fmt.Sprintf("%s%d", c.col, row), c.value); err != nil {
				return "", fmt.Errorf("failed to fill row %d: %w", row, err)
			}
		}
		entryNo++
	}

	noteCell := fmt.Sprintf("C%d", otherRow+2)
	if err := wb.SetCellValue(expenseSheet, noteCell, rateInfo); err != nil {
		return "", fmt.Errorf("failed to set rate note: %w", err)
	}

	// The template's totals are formulas over the rows written above;
	// force a full recalculation when the workbook is opened.
	fullCalc := true
	if err := wb.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &fullCalc}); err != nil {
		return "", fmt.Errorf("failed to set calc props: %w", err)
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	outPath := filepath.Join(s.outputDir, outputFile)
	if err := wb.SaveAs(outPath); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	s.log.Info("expense workbook written", "path", outPath, "entries", entryNo-1)
	return outPath, nil
}
