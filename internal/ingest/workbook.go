package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"worktally/internal/parser"
)

// 支持的源文件格式
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

var errEmptyInput = errors.New("empty input")

// DetectFormat 根据内容嗅探格式，嗅探不出时按扩展名判断
func DetectFormat(data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", errEmptyInput
	}
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
		mt.Is("application/zip"):
		return FormatXLSX, nil
	case mt.Is("text/csv"), mt.Is("text/plain"), mt.Is("text/tab-separated-values"):
		return FormatCSV, nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt", ".tsv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported content type %s", mt.String())
}

// LoadWorkbook 把已读入内存的文件内容转换为工作簿
func LoadWorkbook(data []byte, filename string) (*parser.Workbook, error) {
	format, err := DetectFormat(data, filename)
	if err != nil {
		return nil, parseError("unrecognized workbook format", err)
	}

	var wb *parser.Workbook
	switch format {
	case FormatXLSX:
		wb, err = readXLSX(data)
	default:
		wb, err = readCSV(data, filename)
	}
	if err != nil {
		return nil, parseError("workbook is structurally invalid", err)
	}
	wb.Filename = filepath.Base(filename)
	return wb, nil
}

// readXLSX 读取所有 sheet；日期单元格保留序列号原值，由 CoerceDate 统一换算
func readXLSX(data []byte) (*parser.Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	wb := &parser.Workbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, parser.Sheet{Name: name, Rows: toCells(rows)})
	}
	if len(wb.Sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return wb, nil
}

// readCSV 单 sheet 工作簿，sheet 名取文件名
func readCSV(data []byte, filename string) (*parser.Workbook, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	if strings.EqualFold(filepath.Ext(filename), ".tsv") {
		r.Comma = '\t'
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if name == "" || name == "." {
		name = "data"
	}
	return &parser.Workbook{Sheets: []parser.Sheet{{Name: name, Rows: toCells(rows)}}}, nil
}

func toCells(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
