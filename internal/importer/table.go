package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a header row plus data rows, whatever file format it came from.
type Table struct {
	Headers []string
	Rows    [][]string
	// FirstRow is the 1-based file row number of Rows[0].
	FirstRow int
}

// ReadOptions controls how raw files are turned into a Table.
type ReadOptions struct {
	Delimiter rune     // 0 means detect
	Encoding  Encoding // empty means detect
	Sheet     string   // XLSX sheet name, empty means the first sheet
}

// ReadCSV decodes and splits delimited text.
func ReadCSV(data []byte, opts ReadOptions) (*Table, error) {
	enc := opts.Encoding
	if enc == "" {
		enc = DetectEncoding(data)
	}
	text, err := Decode(data, enc)
	if err != nil {
		return nil, err
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = DetectDelimiter(text)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		records = append(records, rec)
	}
	return tableFromRecords(records)
}

// ReadXLSX reads a worksheet of an Excel workbook.
func ReadXLSX(data []byte, opts ReadOptions) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Excel file: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}
	return tableFromRecords(rows)
}

// tableFromRecords takes the first non-empty record as the header row.
func tableFromRecords(records [][]string) (*Table, error) {
	for i, rec := range records {
		if isEmptyRow(rec) {
			continue
		}
		headers := make([]string, len(rec))
		for j, h := range rec {
			headers[j] = strings.TrimSpace(h)
		}
		return &Table{Headers: headers, Rows: records[i+1:], FirstRow: i + 2}, nil
	}
	return nil, fmt.Errorf("file has no header row")
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// DetectDelimiter picks the delimiter that splits the first lines most
// consistently.
func DetectDelimiter(content string) rune {
	sample := make([]string, 0, 5)
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			sample = append(sample, trimmed)
			if len(sample) == 5 {
				break
			}
		}
	}
	if len(sample) == 0 {
		return ','
	}

	best := ','
	bestScore := 0.0
	for _, delim := range []rune{',', ';', '\t', '|'} {
		counts := make([]float64, len(sample))
		sum := 0.0
		for i, line := range sample {
			counts[i] = float64(strings.Count(line, string(delim)))
			sum += counts[i]
		}
		avg := sum / float64(len(counts))
		if avg == 0 {
			continue
		}

		variance := 0.0
		for _, c := range counts {
			variance += (c - avg) * (c - avg)
		}
		variance /= float64(len(counts))

		if score := avg / (1.0 + variance); score > bestScore {
			bestScore = score
			best = delim
		}
	}
	return best
}
