package utils

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedSpreadsheet = errors.New("unsupported spreadsheet format")
	ErrEmptySpreadsheet       = errors.New("spreadsheet has no header row")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadSpreadsheet turns an uploaded .csv or .xlsx file into header-keyed rows.
// Only the first worksheet of a workbook is read. xlsx cells are read raw so
// date cells come through as serial numbers.
func ReadSpreadsheet(name string, r io.Reader) ([]map[string]any, error) {
	var (
		records [][]string
		err     error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		records, err = readCSV(r)
	case ".xlsx", ".xlsm":
		records, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSpreadsheet, filepath.Ext(name))
	}
	if err != nil {
		return nil, err
	}

	return recordsToRows(records)
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

// sniffDelimiter picks ';' when the header line uses it more than ','.
func sniffDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySpreadsheet
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func recordsToRows(records [][]string) ([]map[string]any, error) {
	if len(records) == 0 {
		return nil, ErrEmptySpreadsheet
	}

	headers := make([]string, len(records[0]))
	seen := make(map[string]bool, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		headers[i] = h
	}
	if len(seen) == 0 {
		return nil, ErrEmptySpreadsheet
	}

	rows := make([]map[string]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]any, len(headers))
		blank := true
		for i, value := range record {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			value = strings.TrimSpace(value)
			if value != "" {
				blank = false
			}
			row[headers[i]] = value
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}
