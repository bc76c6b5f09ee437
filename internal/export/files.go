package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"jobstreet-applied/internal/records"

	"github.com/xuri/excelize/v2"
)

type placeholder struct {
	Message string `json:"message"`
}

func writeJSON(path string, rs []records.JobRecord) error {
	var value any = rs
	if len(rs) == 0 {
		value = placeholder{Message: NoData}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(value)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ReadJSON reads a json export back, the no data placeholder yields no
// records.
func ReadJSON(path string) ([]records.JobRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rs []records.JobRecord
	err = json.Unmarshal(data, &rs)
	if err == nil {
		return rs, nil
	}
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var p placeholder
	if json.Unmarshal(data, &p) == nil && p.Message != "" {
		return []records.JobRecord{}, nil
	}
	return nil, fmt.Errorf("read %s: %w", path, err)
}

func writeCSV(path string, rs []records.JobRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(rs) == 0 {
		err = w.Write([]string{NoData})
	} else {
		header, rows := table(rs)
		err = w.Write(header)
		if err == nil {
			err = w.WriteAll(rows)
		}
	}
	if err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

const sheetName = "Applied Jobs"

func writeXLSX(path string, rs []records.JobRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	err := f.SetSheetName("Sheet1", sheetName)
	if err != nil {
		return err
	}

	if len(rs) == 0 {
		err = f.SetCellValue(sheetName, "A1", NoData)
		if err != nil {
			return err
		}
		return f.SaveAs(path)
	}

	header, rows := table(rs)
	err = setRow(f, 1, header)
	if err != nil {
		return err
	}
	err = f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return err
	}
	for i, row := range rows {
		err = setRow(f, i+2, row)
		if err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func setRow(f *excelize.File, index int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, index)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheetName, cell, &row)
}
