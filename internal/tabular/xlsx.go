package tabular

import (
	"bytes"
	"fmt"

	"github.com/ingresskit/repair/internal/engine"
	"github.com/ingresskit/repair/internal/schema"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first sheet of an XLSX workbook into a header row and
// data rows. Grounded on the teacher's reach for excelize wherever it needs
// spreadsheet ingestion beyond plain CSV.
func ReadXLSX(data []byte) (headers []string, rows [][]string, err error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("unreadable_input: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrUnreadableInput
	}

	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("unreadable_input: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, ErrUnreadableInput
	}

	return all[0], all[1:], nil
}

// RepairXLSX parses data as an XLSX workbook and runs its first sheet
// through the Repair Engine for the given schema.
func RepairXLSX(s schema.Schema, data []byte) (engine.Result, error) {
	headers, rows, err := ReadXLSX(data)
	if err != nil {
		return engine.Result{}, err
	}
	return engine.Repair(s, headers, rows), nil
}
