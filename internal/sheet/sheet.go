// Package sheet reads PMS exports (CSV or Excel workbooks) into a raw,
// headerless two-dimensional table of trimmed strings.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported_file_format")
	ErrEmptyFile         = errors.New("empty_file")
)

// Raw is a headerless table exactly as read from the file.
type Raw [][]string

// Table is a raw table split into column labels and data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Format is the physical container of an upload.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat derives the container format from the file extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// Read parses r according to the extension of filename.
func Read(filename string, r io.Reader) (Raw, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	var raw Raw
	switch format {
	case FormatCSV:
		raw, err = readCSV(r)
	case FormatXLSX:
		raw, err = readXLSX(r)
	}
	if err != nil {
		return nil, err
	}
	raw = trim(raw)
	if len(raw) == 0 {
		return nil, ErrEmptyFile
	}
	return raw, nil
}

func readCSV(r io.Reader) (Raw, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	// Korean PMS exports are frequently CP949 rather than UTF-8.
	var decoded io.Reader
	if utf8.Valid(payload) {
		decoded = transform.NewReader(bytes.NewReader(payload), unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	} else {
		decoded = transform.NewReader(bytes.NewReader(payload), korean.EUCKR.NewDecoder())
	}

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

func readXLSX(r io.Reader) (Raw, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	return rows, nil
}

// trim strips cell whitespace, drops trailing empty cells and trailing empty rows.
func trim(raw Raw) Raw {
	out := make(Raw, 0, len(raw))
	for _, row := range raw {
		cells := make([]string, len(row))
		last := -1
		for i, cell := range row {
			cells[i] = strings.TrimSpace(cell)
			if cells[i] != "" {
				last = i
			}
		}
		out = append(out, cells[:last+1])
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

// Cell returns row[idx] or "" when the row is too short.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// IsBlank reports whether every cell in row is empty.
func IsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
