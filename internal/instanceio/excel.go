package instanceio

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/packingsolver/internal/model"
)

// sheetRows loads the first populated sheet of path as a [][]string, the
// same shape csv.Reader.ReadAll produces, so the CSV row-parsing helpers
// apply unchanged to an Excel-sourced instance.
func sheetRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening excel workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, model.ConfigError("excel workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s of %s: %w", sheets[0], path, err)
	}
	if len(rows) == 0 {
		return nil, model.ConfigError("excel workbook %s sheet %s is empty", path, sheets[0])
	}
	return rows, nil
}

// ImportBinsExcel loads bin types from the first sheet of an Excel workbook,
// mirroring LoadBinsCSV's column set and defaults.
func ImportBinsExcel(path string, b *model.InstanceBuilder) error {
	rows, err := sheetRows(path)
	if err != nil {
		return err
	}
	return loadBinsRows(rows, b)
}

// ImportItemsExcel loads item types from the first sheet of an Excel
// workbook, mirroring LoadItemsCSV's column set and defaults.
func ImportItemsExcel(path string, b *model.InstanceBuilder) error {
	rows, err := sheetRows(path)
	if err != nil {
		return err
	}
	return loadItemsRows(rows, b)
}
