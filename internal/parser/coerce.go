package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// spreadsheetEpochOffset 表格序列日期与 Unix 纪元（1970-01-01）之间相差的天数
const spreadsheetEpochOffset = 25569

const isoDate = "2006-01-02"

var (
	reEightDigitDate = regexp.MustCompile(`^\d{8}$`)
	reBareNumber     = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)
)

// 通用日期格式（按尝试顺序）
var dateLayouts = []string{
	isoDate,
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	"2006.01.02",
	"2006.1.2",
	"2006年1月2日",
	"2006年01月02日",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/1/2 15:04",
	"01-02-06",
	"1/2/06",
	"1/2/2006",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// CoerceDate 将原始单元格值转换为 YYYY-MM-DD；无法识别时返回 ""（不报错）
func CoerceDate(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(isoDate)
	case float64:
		return coerceDateFloat(v)
	case float32:
		return coerceDateFloat(float64(v))
	case int:
		return coerceDateString(strconv.Itoa(v))
	case int64:
		return coerceDateString(strconv.FormatInt(v, 10))
	}
	return coerceDateString(CoerceString(raw))
}

// coerceDateFloat 整数值先按 YYYYMMDD 判断，其余按序列日期
func coerceDateFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if v == math.Trunc(v) {
		return coerceDateString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return serialToDate(v)
}

func coerceDateString(s string) string {
	s = foldWidth(s)
	if s == "" {
		return ""
	}

	// 8 位数字：YYYYMMDD
	if reEightDigitDate.MatchString(s) {
		t, err := time.Parse("20060102", s)
		if err != nil {
			return ""
		}
		return t.Format(isoDate)
	}

	// 纯数字：表格序列日期
	if reBareNumber.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return ""
		}
		return serialToDate(f)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDate)
		}
	}
	return ""
}

// serialToDate 序列日期 → (serial − 25569) × 86400 秒 → UTC 日期
func serialToDate(serial float64) string {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return ""
	}
	seconds := math.Round((serial - spreadsheetEpochOffset) * 86400)
	return time.Unix(int64(seconds), 0).UTC().Format(isoDate)
}

// CoerceNumber 将原始单元格值转换为数值；空值/非数值返回 0
func CoerceNumber(raw any) float64 {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case bool:
		return 0
	default:
		s := foldWidth(CoerceString(raw))
		if s == "" {
			return 0
		}
		s = strings.ReplaceAll(s, ",", "") // 移除千分位
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// CoerceString 将原始单元格值转换为去除首尾空白的字符串；nil 返回 ""
func CoerceString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		return v.Format(isoDate)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	}
	return strings.TrimSpace(fmt.Sprint(raw))
}

// IsEmptyRow 一行中所有单元格均为空时视为空行
func IsEmptyRow(row []any) bool {
	for _, cell := range row {
		if CoerceString(cell) != "" {
			return false
		}
	}
	return true
}

// foldWidth 全角字符折叠为半角并去除首尾空白
func foldWidth(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}
