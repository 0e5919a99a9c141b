package parser

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// NormalizeColumnName 规范化列名：全角折叠为半角、转小写、去除所有空白
func NormalizeColumnName(name string) string {
	name = width.Fold.String(name)
	name = strings.ToLower(name)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
}

// NormalizeHeaders 批量规范化列名
func NormalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = NormalizeColumnName(h)
	}
	return out
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// isSubsequence needle 的每个字符按顺序出现在 haystack 中
func isSubsequence(needle, haystack string) bool {
	n := []rune(needle)
	if len(n) == 0 {
		return false
	}
	i := 0
	for _, r := range haystack {
		if r == n[i] {
			i++
			if i == len(n) {
				return true
			}
		}
	}
	return false
}

// RowStrings 将任意单元格行转为字符串行
func RowStrings(row []any) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = CoerceString(c)
	}
	return out
}
