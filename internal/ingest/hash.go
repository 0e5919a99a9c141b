package ingest

import (
	"encoding/base64"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"worktally/internal/model"
)

const hashDelimiter = "|"

// ContentHash 记录的内容指纹：仅由有意义的业务字段决定
func ContentHash(r *model.WorkRecord) string {
	parts := []string{
		r.WorkDate,
		r.ContractorName,
		r.ProjectCode,
		r.SubworkCode,
		r.SubareaCode,
		r.Reporter,
		formatHours(r.InHours),
		formatHours(r.OutHours),
		formatHours(r.TotalHours),
	}
	return hashToken(strings.Join(parts, hashDelimiter))
}

// hashToken UTF-8 字节 → 64 位摘要 → URL 安全 base64，去除非字母数字字符
func hashToken(s string) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], xxhash.Sum64String(s))
	encoded := base64.RawURLEncoding.EncodeToString(buf[:])
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, encoded)
}

func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
