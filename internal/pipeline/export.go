package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/froosterton/reddih/internal"
)

func ExportRowsToXLSX(rows []internal.DecisionExportRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"post_db_id", "subreddit", "post_id", "title", "permalink",
		"outcome", "reason", "source",
		"item_id", "item_name", "item_acronym", "item_value", "detected_as",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.PostDBID)
		set(2, row.Subreddit)
		set(3, row.PostID)
		set(4, row.Title)
		set(5, row.Permalink)
		set(6, row.Outcome)
		set(7, row.Reason)
		set(8, row.Source)
		set(9, derefInt64(row.ItemID))
		set(10, derefString(row.ItemName))
		set(11, derefString(row.ItemAcronym))
		set(12, derefInt64(row.ItemValue))
		set(13, derefString(row.DetectedAs))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt64(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}
