package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	registry "factory-ops/internal/registry/domain"
	toollife "factory-ops/internal/toollife/domain"
)

// BuildHistoryPDF renders a usage history report for one tool.
func BuildHistoryPDF(tool *registry.Tool, events []toollife.UsageEvent) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Tool Usage History")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Tool ID: %d", tool.ToolID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Tool Name: %s", tool.ToolName))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Life Threshold: %g", tool.LifeThreshold))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", tool.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(38, 6, "Timestamp", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Component", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "Holes", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Cutting Len", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Usage Score", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Cumulative", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Usage %", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Alert", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, event := range events {
		pdf.CellFormat(38, 6, event.Timestamp.Format("2006-01-02 15:04:05"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, event.ComponentID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 6, fmt.Sprintf("%g", event.HolesCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%g", event.CuttingLength), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.2f", event.UsageScore), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", event.CumulativeAfter), "1", 0, "R", false, 0, "")
		pdf.CellFormat(24, 6, fmt.Sprintf("%.2f", event.UsagePercentage), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, string(event.Tier), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildHistoryXLSX renders a usage history workbook for one tool.
func BuildHistoryXLSX(tool *registry.Tool, events []toollife.UsageEvent) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	historySheet := "history"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(historySheet)

	_ = f.SetCellValue(summarySheet, "A1", "Tool Usage History")
	_ = f.SetCellValue(summarySheet, "A3", "Tool ID")
	_ = f.SetCellValue(summarySheet, "B3", tool.ToolID)
	_ = f.SetCellValue(summarySheet, "A4", "Tool Name")
	_ = f.SetCellValue(summarySheet, "B4", tool.ToolName)
	_ = f.SetCellValue(summarySheet, "A5", "Holder")
	_ = f.SetCellValue(summarySheet, "B5", tool.HolderName)
	_ = f.SetCellValue(summarySheet, "A6", "Life Threshold")
	_ = f.SetCellValue(summarySheet, "B6", tool.LifeThreshold)
	_ = f.SetCellValue(summarySheet, "A7", "Status")
	_ = f.SetCellValue(summarySheet, "B7", tool.Status)
	_ = f.SetCellValue(summarySheet, "A8", "Events")
	_ = f.SetCellValue(summarySheet, "B8", len(events))

	headers := []string{"Timestamp", "Component", "Holes", "Cutting Length", "Usage Score",
		"Cumulative Before", "Cumulative After", "Usage %", "Remaining Life", "Alert Type", "Operator"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(historySheet, cell, header)
	}
	for i, event := range events {
		row := i + 2
		values := []any{
			event.Timestamp.Format(time.RFC3339),
			event.ComponentID,
			event.HolesCount,
			event.CuttingLength,
			event.UsageScore,
			event.CumulativeBefore,
			event.CumulativeAfter,
			event.UsagePercentage,
			event.RemainingLife,
			string(event.Tier),
			event.OperatorID,
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			_ = f.SetCellValue(historySheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
