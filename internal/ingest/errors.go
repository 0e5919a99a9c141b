package ingest

import (
	"fmt"
	"time"
)

// ErrorCode 导入错误码（稳定，供调用方分支判断）
type ErrorCode string

const (
	CodeFileReadFailure   ErrorCode = "FILE_READ_FAILURE"
	CodeParseFailure      ErrorCode = "PARSE_FAILURE"
	CodeValidationFailure ErrorCode = "VALIDATION_FAILURE"
)

// Error 结构性导入错误：中止整个导入调用
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Err       error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	e := &Error{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// fileReadError 原始字节读取失败（原样透出底层错误）
func fileReadError(err error) *Error {
	return newError(CodeFileReadFailure, "failed to read source file", err)
}

// parseError 工作簿结构无效或找不到数据表
func parseError(message string, err error) *Error {
	return newError(CodeParseFailure, message, err)
}
