package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-translate-go/internal/types"
)

var Header = []string{"Video filename", "Translated text", "Retrieved Proper Nouns", "Processed Datetime"}

// Sink persists one result record, replacing any previous contents.
type Sink interface {
	Write(rec types.ResultRecord) error
	Path() string
}

// New picks the sink from the file extension: .xlsx writes a workbook,
// anything else writes CSV.
func New(path string) Sink {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return &XLSXSink{path: path}
	}
	return &CSVSink{path: path}
}

// Read loads the record written by the sink at path.
func Read(path string) (types.ResultRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path)
	}
	return readCSV(path)
}

func toRow(rec types.ResultRecord) ([]string, error) {
	nouns, err := encodeNouns(rec.ProperNouns)
	if err != nil {
		return nil, err
	}
	return []string{rec.VideoFilename, rec.TranslatedText, nouns, rec.ProcessedAt}, nil
}

func fromRows(rows [][]string) (types.ResultRecord, error) {
	if len(rows) != 2 {
		return types.ResultRecord{}, fmt.Errorf("want header and one record, got %d rows", len(rows))
	}
	if !equalRow(rows[0], Header) {
		return types.ResultRecord{}, fmt.Errorf("unexpected header %q", rows[0])
	}
	row := rows[1]
	for len(row) < len(Header) {
		row = append(row, "")
	}
	nouns, err := decodeNouns(row[2])
	if err != nil {
		return types.ResultRecord{}, err
	}
	return types.ResultRecord{
		VideoFilename:  row[0],
		TranslatedText: row[1],
		ProperNouns:    nouns,
		ProcessedAt:    row[3],
	}, nil
}

// encodeNouns stores the list as a JSON array so separators and quotes in
// individual nouns survive a round trip.
func encodeNouns(nouns []string) (string, error) {
	if nouns == nil {
		nouns = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(nouns); err != nil {
		return "", fmt.Errorf("encode proper nouns: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func decodeNouns(s string) ([]string, error) {
	nouns := []string{}
	if strings.TrimSpace(s) == "" {
		return nouns, nil
	}
	if err := json.Unmarshal([]byte(s), &nouns); err != nil {
		return nil, fmt.Errorf("decode proper nouns: %w", err)
	}
	return nouns, nil
}

func equalRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.TrimSpace(a[i]) != b[i] {
			return false
		}
	}
	return true
}

// replaceFile writes through a temp file in the target directory and renames
// it over path, so a failed write leaves the previous file intact.
func replaceFile(path, pattern string, write func(tmp string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create result dir: %w", err)
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	_ = f.Close()

	if err := write(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
