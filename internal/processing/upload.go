package processing

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/xuri/excelize/v2"
)

// RatingColumn is picked up automatically when an uploaded table has it.
const RatingColumn = "nota"

const previewRows = 5

// Separators accepted for delimited uploads.
var Separators = []rune{',', ';', '\t'}

type Upload struct {
	Name      string
	Reader    io.Reader
	Separator rune
}

// Table is an uploaded file read into memory.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable parses a delimited file, or the first sheet of an .xlsx
// workbook when the name says so.
func ReadTable(u Upload) (*Table, error) {
	if strings.EqualFold(filepath.Ext(u.Name), ".xlsx") {
		return readWorkbook(u.Reader)
	}
	return readDelimited(u.Reader, u.Separator)
}

func readDelimited(r io.Reader, sep rune) (*Table, error) {
	if !validSeparator(sep) {
		return nil, fmt.Errorf("%w: unsupported separator %q", ErrParseFailure, sep)
	}

	reader := csv.NewReader(r)
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}
	return newTable(rows)
}

func readWorkbook(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}
	return newTable(rows)
}

func newTable(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrParseFailure)
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return &Table{Header: header, Rows: rows[1:]}, nil
}

func validSeparator(sep rune) bool {
	for _, s := range Separators {
		if s == sep {
			return true
		}
	}
	return false
}

// Preview returns up to five data rows for showing the user before they
// choose a column.
func (t *Table) Preview() [][]string {
	return t.Rows[:min(previewRows, len(t.Rows))]
}

func (t *Table) columnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	for i, h := range t.Header {
		if strings.EqualFold(h, strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// Records takes the text from the chosen column and, when present, the
// rating from the nota column.
func (t *Table) Records(column string) ([]models.RawRecord, error) {
	textIdx := t.columnIndex(column)
	if textIdx < 0 {
		return nil, fmt.Errorf("%w: column %q not found, available columns: %s",
			ErrParseFailure, column, strings.Join(t.Header, ", "))
	}
	ratingIdx := -1
	if !strings.EqualFold(column, RatingColumn) {
		ratingIdx = t.columnIndex(RatingColumn)
	}

	records := make([]models.RawRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := models.RawRecord{Text: cell(row, textIdx)}
		if ratingIdx >= 0 {
			record.Rating = parseRating(cell(row, ratingIdx))
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no rows below the header", ErrParseFailure)
	}
	return records, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// parseRating accepts "4", "4.0" and "4,0"; anything else counts as no rating.
func parseRating(raw string) *int {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		return nil
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	v := int(math.Round(f))
	return &v
}

// LoadUpload reads an upload and takes the records from column. The table
// is returned whenever the file itself parsed, so a caller can show a
// preview when the column is wrong.
func LoadUpload(u Upload, column string) (*Table, []models.RawRecord, error) {
	table, err := ReadTable(u)
	if err != nil {
		return nil, nil, err
	}
	records, err := table.Records(column)
	if err != nil {
		return table, nil, err
	}
	return table, records, nil
}
