package v1

import (
	"github.com/gin-gonic/gin"

	"worktally/internal/aggregate"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized     bool     `json:"initialized"` // 是否已有记录
	Records         int      `json:"records"`
	TaxonomyEntries int      `json:"taxonomyEntries"`
	TaxonomyVersion int      `json:"taxonomyVersion"`
	Imports         int      `json:"imports"`
	LastImportTime  string   `json:"lastImportTime"`
	Dimensions      []string `json:"dimensions"`
	Metrics         []string `json:"metrics"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	st := h.session.Status()
	resp := StatusResponse{
		Initialized:     st.Records > 0,
		Records:         st.Records,
		TaxonomyEntries: st.TaxonomyEntries,
		TaxonomyVersion: st.TaxonomyVersion,
		Imports:         st.Imports,
		Dimensions:      aggregate.Dimensions(),
		Metrics:         aggregate.Metrics(),
	}
	if st.LastImportAt != nil {
		resp.LastImportTime = st.LastImportAt.Format("2006-01-02 15:04:05")
	}
	success(c, resp)
}
