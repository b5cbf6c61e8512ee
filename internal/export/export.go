package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Writer turns downloaded CSV report streams into xlsx workbooks on disk.
type Writer struct {
	dir    string
	logger zerolog.Logger

	// now is swappable for tests
	now func() time.Time
}

func NewWriter(dir string, logger *zerolog.Logger) *Writer {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "export").Logger()
	}
	return &Writer{dir: dir, logger: base, now: time.Now}
}

// WriteXLSX reads a CSV stream and writes a styled workbook named after the
// report kind and date. Returns the written file path.
func (w *Writer) WriteXLSX(kind string, csvData io.Reader) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	records, err := csv.NewReader(csvData).ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse report csv: %w", err)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("report %s is empty", kind)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := kind
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	// Row 1 is a merged title, row 2 the CSV header, data follows.
	title := fmt.Sprintf("%s report — %s", kind, w.now().Format("02.01.2006"))
	_ = f.SetCellValue(sheetName, "A1", title)

	for rowIdx, record := range records {
		for colIdx, value := range record {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return "", err
			}
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(records[0]))
	if err != nil {
		return "", err
	}
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	_ = f.SetColWidth(sheetName, "A", lastCol, 22)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	_ = f.SetCellStyle(sheetName, "A2", lastCol+"2", headerStyle)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("%s_%s.xlsx", kind, w.now().Format("2006-01-02"))
	filePath := filepath.Join(w.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info().Str("file_path", filePath).Int("rows", len(records)).Msg("report exported")
	return filePath, nil
}
