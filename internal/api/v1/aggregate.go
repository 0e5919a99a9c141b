package v1

import (
	"github.com/gin-gonic/gin"

	"worktally/internal/aggregate"
)

// AggregateByCategory 按分类汇总
// GET /api/aggregate/category
func (h *Handler) AggregateByCategory(c *gin.Context) {
	records, ok := h.filteredRecords(c)
	if !ok {
		return
	}
	success(c, aggregate.ByCategory(records, h.session.Taxonomy()))
}

// AggregateByRatio 规内/规外占比
// GET /api/aggregate/ratio
func (h *Handler) AggregateByRatio(c *gin.Context) {
	records, ok := h.filteredRecords(c)
	if !ok {
		return
	}
	success(c, aggregate.ByRatio(records))
}

// AggregateByDate 按日期汇总
// GET /api/aggregate/date
func (h *Handler) AggregateByDate(c *gin.Context) {
	records, ok := h.filteredRecords(c)
	if !ok {
		return
	}
	success(c, aggregate.ByDate(records))
}

// AggregateRows 按工事番号 × 工种代码的报表行
// GET /api/aggregate/rows
func (h *Handler) AggregateRows(c *gin.Context) {
	records, ok := h.filteredRecords(c)
	if !ok {
		return
	}
	success(c, aggregate.ReportRows(records, h.session.Taxonomy()))
}

// AggregateTotals 合计
// GET /api/aggregate/totals
func (h *Handler) AggregateTotals(c *gin.Context) {
	records, ok := h.filteredRecords(c)
	if !ok {
		return
	}
	success(c, aggregate.ComputeTotals(records))
}
