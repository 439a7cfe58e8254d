package importer

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

// ErrEmptyUpload is returned when the upload carries no header row.
var ErrEmptyUpload = errors.New("upload is empty")

// InputError indicates that the upload as a whole could not be read.
type InputError struct {
	Message string
}

// Error implements the error interface.
func (e InputError) Error() string {
	return e.Message
}

// RawRow is one parsed input record keyed by lowercased column name.
// Blank cells are stored as nil.
type RawRow map[string]*string

// Value returns the cell for key and whether it holds a non-blank value.
func (r RawRow) Value(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

var zipSignature = []byte("PK\x03\x04")

// Parse turns an upload buffer into rows, picking the decoder from the file
// name or the content signature.
func Parse(data []byte, filename string) ([]RawRow, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyUpload
	}
	if isSpreadsheet(data, filename) {
		return ParseXLSX(data)
	}
	return ParseCSV(bytes.NewReader(data))
}

func isSpreadsheet(data []byte, filename string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return true
	}
	return bytes.HasPrefix(data, zipSignature)
}

// ParseCSV reads a delimited upload. Ragged records and stray quotes are read
// leniently; an unterminated quote swallows the rest of the input into one
// cell, which Validate reports as a line break in that row's fields.
func ParseCSV(r io.Reader) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyUpload
		}
		return nil, InputError{Message: fmt.Sprintf("read csv header: %v", err)}
	}
	columns := normalizeHeader(header)

	var rows []RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, InputError{Message: fmt.Sprintf("read csv row: %v", err)}
		}
		if row, ok := buildRow(columns, record); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// ParseXLSX reads the first worksheet of a spreadsheet upload.
func ParseXLSX(data []byte) ([]RawRow, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, InputError{Message: fmt.Sprintf("open spreadsheet: %v", err)}
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyUpload
	}
	records, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, InputError{Message: fmt.Sprintf("read spreadsheet rows: %v", err)}
	}
	if len(records) == 0 {
		return nil, ErrEmptyUpload
	}

	columns := normalizeHeader(records[0])
	var rows []RawRow
	for _, record := range records[1:] {
		if row, ok := buildRow(columns, record); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		columns[i] = strings.ToLower(strings.TrimSpace(col))
	}
	return columns
}

// buildRow maps a record onto the header. It reports false for records whose
// cells are all blank.
func buildRow(columns []string, record []string) (RawRow, bool) {
	row := make(RawRow, len(columns))
	filled := false
	for i, col := range columns {
		if col == "" {
			continue
		}
		if _, seen := row[col]; seen {
			continue
		}
		var cell *string
		if i < len(record) {
			cell = normalizeString(record[i])
		}
		if cell != nil {
			filled = true
		}
		row[col] = cell
	}
	return row, filled
}

func normalizeString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
