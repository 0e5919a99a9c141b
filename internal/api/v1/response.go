package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"worktally/internal/ingest"
)

// 业务错误码
const (
	CodeOK              = 0
	CodeBadRequest      = 1001
	CodeFileRead        = 2001
	CodeParse           = 2002
	CodeValidation      = 2003
	CodeTaxonomyMissing = 2004
	CodeNotFound        = 4004
	CodeInternal        = 5000
	CodeExportFailed    = 5002
)

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// ingestErrorResponse 导入错误 → 响应；结构性错误附带错误码与时间戳
func ingestErrorResponse(c *gin.Context, err error) {
	c.JSON(http.StatusOK, ingestErrorBody(err))
}

// ingestErrorBody 导入错误对应的响应体（JSON 响应与 SSE error 事件共用）
func ingestErrorBody(err error) Response {
	var ie *ingest.Error
	if !errors.As(err, &ie) {
		return Response{Code: CodeInternal, Message: err.Error()}
	}
	code := CodeInternal
	switch ie.Code {
	case ingest.CodeFileReadFailure:
		code = CodeFileRead
	case ingest.CodeParseFailure:
		code = CodeParse
	case ingest.CodeValidationFailure:
		code = CodeValidation
	}
	return Response{
		Code:    code,
		Message: ie.Message,
		Data:    ie,
	}
}
