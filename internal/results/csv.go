package results

import (
	"encoding/csv"
	"fmt"
	"os"

	"video-translate-go/internal/types"
)

type CSVSink struct {
	path string
}

func (s *CSVSink) Path() string { return s.path }

func (s *CSVSink) Write(rec types.ResultRecord) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	return replaceFile(s.path, ".results-*.csv", func(tmp string) error {
		f, err := os.Create(tmp)
		if err != nil {
			return fmt.Errorf("open csv: %w", err)
		}
		w := csv.NewWriter(f)
		_ = w.Write(Header)
		_ = w.Write(row)
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return fmt.Errorf("write csv: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close csv: %w", err)
		}
		return nil
	})
}

func readCSV(path string) (types.ResultRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.ResultRecord{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)
	rows, err := r.ReadAll()
	if err != nil {
		return types.ResultRecord{}, fmt.Errorf("read rows: %w", err)
	}
	return fromRows(rows)
}
