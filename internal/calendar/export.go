package calendar

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// BaseName is the file name stem used by Export
const BaseName = "content_calendar"

// Header is the column order shared by every format
var Header = []string{"日期", "选题", "平台"}

const xlsxSheet = "Sheet1"

// Row renders an entry in Header order
func (e Entry) Row() []string {
	return []string{e.Date.Format(DateLayout), e.Topic, e.Platform}
}

// WriteCSV writes entries as comma-separated text with a header row
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(e.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonRecord struct {
	Date     string `json:"日期"`
	Topic    string `json:"选题"`
	Platform string `json:"平台"`
}

// WriteJSON writes entries as an array of records with unescaped UTF-8
func WriteJSON(w io.Writer, entries []Entry) error {
	records := make([]jsonRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, jsonRecord{Date: e.Date.Format(DateLayout), Topic: e.Topic, Platform: e.Platform})
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteXLSX writes entries as a single-sheet workbook
func WriteXLSX(w io.Writer, entries []Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{e.Date.Format(DateLayout), e.Topic, e.Platform}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	return f.Write(w)
}

// Writer returns the writer function for a format
func Writer(format string) (func(io.Writer, []Entry) error, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return WriteCSV, nil
	case FormatXLSX:
		return WriteXLSX, nil
	case FormatJSON:
		return WriteJSON, nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// ContentType returns the MIME type of a format
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json; charset=utf-8"
	}
}

// Export writes content_calendar.<format> into dir for every format and
// returns the written paths. Unknown formats fail before any file is written.
func Export(dir string, entries []Entry, formats []string) ([]string, error) {
	writers := make([]func(io.Writer, []Entry) error, len(formats))
	for i, format := range formats {
		w, err := Writer(format)
		if err != nil {
			return nil, err
		}
		writers[i] = w
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	paths := make([]string, 0, len(formats))
	for i, format := range formats {
		path := filepath.Join(dir, BaseName+"."+strings.ToLower(format))
		if err := writeFile(path, entries, writers[i]); err != nil {
			return paths, fmt.Errorf("failed to export %s: %w", format, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, entries []Entry, write func(io.Writer, []Entry) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
