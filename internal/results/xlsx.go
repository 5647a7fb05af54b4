package results

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"video-translate-go/internal/types"
)

type XLSXSink struct {
	path string
}

func (s *XLSXSink) Path() string { return s.path }

func (s *XLSXSink) Write(rec types.ResultRecord) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	return replaceFile(s.path, ".results-*.xlsx", func(tmp string) error {
		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)
		if err := f.SetSheetRow(sheet, "A1", &Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if err := f.SetSheetRow(sheet, "A2", &row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := f.SaveAs(tmp); err != nil {
			return fmt.Errorf("save workbook: %w", err)
		}
		return nil
	})
}

func readXLSX(path string) (types.ResultRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return types.ResultRecord{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return types.ResultRecord{}, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return types.ResultRecord{}, fmt.Errorf("read rows: %w", err)
	}
	return fromRows(rows)
}
