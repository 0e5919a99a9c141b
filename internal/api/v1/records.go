package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"worktally/internal/aggregate"
	"worktally/internal/model"
	"worktally/internal/store"
)

// bindFilter 从查询参数解析筛选条件
func bindFilter(c *gin.Context) (aggregate.Filter, bool) {
	var f aggregate.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		errorResponse(c, CodeBadRequest, "invalid filter: "+err.Error())
		return f, false
	}
	return f, true
}

// filteredRecords 会话记录按查询参数筛选
func (h *Handler) filteredRecords(c *gin.Context) ([]model.WorkRecord, bool) {
	f, ok := bindFilter(c)
	if !ok {
		return nil, false
	}
	return f.Apply(h.session.Records()), true
}

// ListRecords 分页查询记录
// GET /api/records?page=1&pageSize=50&from=&to=&project=&contractor=&employment=
func (h *Handler) ListRecords(c *gin.Context) {
	records, ok := h.filteredRecords(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	success(c, gin.H{
		"items":    aggregate.Paginate(records, page, pageSize),
		"total":    len(records),
		"page":     page,
		"pageSize": pageSize,
	})
}

// ClearRecords 清空会话记录（保留分类表）
// DELETE /api/records
func (h *Handler) ClearRecords(c *gin.Context) {
	removed := h.session.Clear()
	h.logger.WithField("removed", removed).Info("session records cleared")
	success(c, gin.H{"removed": removed})
}

// ListUndefinedCodes 未在分类表中定义的工种代码
// GET /api/undefined-codes
func (h *Handler) ListUndefinedCodes(c *gin.Context) {
	success(c, h.session.UndefinedCodes())
}

// GetRecord 按内容指纹查询单条记录
// GET /api/records/:hash
func (h *Handler) GetRecord(c *gin.Context) {
	r, err := h.session.Record(c.Param("hash"))
	if errors.Is(err, store.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, Response{Code: CodeNotFound, Message: err.Error()})
		return
	}
	if err != nil {
		errorResponse(c, CodeInternal, err.Error())
		return
	}
	success(c, r)
}

// ListImports 导入日志（按导入顺序）
// GET /api/imports
func (h *Handler) ListImports(c *gin.Context) {
	success(c, h.session.Imports())
}
