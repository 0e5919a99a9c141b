package v1

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktally/internal/model"
	"worktally/internal/store"
)

const timesheetCSV = "日付,業者名,工事番号,工種コード,規内,規外\n" +
	"20250115,山田建設,S1001,A01,8,2\n" +
	"20250116,佐藤工業,S1002,B99,4,0\n"

const taxonomyYAML = `codes:
  - subwork_code: A01
    subwork_name: 掘削
    major_code: "10"
    major_name: 土工
`

func newTestRouter(t *testing.T) (*gin.Engine, *store.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	session := store.NewSession()
	h := NewHandler(Options{
		Session:   session,
		Logger:    logger,
		ExportDir: t.TempDir(),
		Separator: ',',
	})

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r, session
}

func upload(t *testing.T, r *gin.Engine, path string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decode 解析通用响应并把 data 解到 out
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) Response {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var raw struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	if out != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return Response{Code: raw.Code, Message: raw.Message}
}

func TestImportAndAggregate(t *testing.T) {
	r, session := newTestRouter(t)

	var imports []ImportResponse
	resp := decode(t, upload(t, r, "/api/import", map[string]string{"timesheet.csv": timesheetCSV}), &imports)
	require.Equal(t, CodeOK, resp.Code, resp.Message)
	require.Len(t, imports, 1)
	assert.Equal(t, "timesheet.csv", imports[0].Filename)
	assert.Equal(t, 2, imports[0].Summary.Inserted)
	assert.Equal(t, 2, imports[0].Summary.UndefinedCodes)
	assert.Equal(t, "工種コード", imports[0].ColumnMapping[model.FieldSubworkCode])
	assert.Equal(t, 2, session.Status().Records)

	// 再次导入同一文件：按指纹覆盖
	resp = decode(t, upload(t, r, "/api/import", map[string]string{"timesheet.csv": timesheetCSV}), &imports)
	require.Equal(t, CodeOK, resp.Code)
	assert.Equal(t, 0, imports[0].Summary.Inserted)
	assert.Equal(t, 2, imports[0].Summary.Updated)

	var tax map[string]any
	resp = decode(t, upload(t, r, "/api/taxonomy", map[string]string{"codes.yaml": taxonomyYAML}), &tax)
	require.Equal(t, CodeOK, resp.Code, resp.Message)
	assert.EqualValues(t, 1, tax["version"])

	var undefined []model.UndefinedCodeStat
	decode(t, doJSON(t, r, http.MethodGet, "/api/undefined-codes", nil), &undefined)
	require.Len(t, undefined, 1)
	assert.Equal(t, "B99", undefined[0].SubworkCode)

	var categories []model.CategorySummary
	decode(t, doJSON(t, r, http.MethodGet, "/api/aggregate/category", nil), &categories)
	require.Len(t, categories, 2)
	assert.Equal(t, "土工", categories[0].Name)
	assert.Equal(t, 10.0, categories[0].TotalHours)
	assert.Equal(t, "未分類(S1002/B99)", categories[1].Name)

	var totals model.Totals
	decode(t, doJSON(t, r, http.MethodGet, "/api/aggregate/totals", nil), &totals)
	assert.Equal(t, 14.0, totals.TotalHours)
	assert.Equal(t, 14.3, totals.OvertimeRatio)
	assert.Equal(t, 2, totals.RecordCount)

	var filtered model.Totals
	decode(t, doJSON(t, r, http.MethodGet, "/api/aggregate/totals?contractor="+url.QueryEscape("山田"), nil), &filtered)
	assert.Equal(t, 1, filtered.RecordCount)

	var ratio []model.RatioSlice
	decode(t, doJSON(t, r, http.MethodGet, "/api/aggregate/ratio", nil), &ratio)
	require.Len(t, ratio, 2)
	assert.Equal(t, 12.0, ratio[0].Value)

	var daily []model.DailySummary
	decode(t, doJSON(t, r, http.MethodGet, "/api/aggregate/date?from=2025-01-16", nil), &daily)
	require.Len(t, daily, 1)
	assert.Equal(t, "2025-01-16", daily[0].Date)

	var status StatusResponse
	decode(t, doJSON(t, r, http.MethodGet, "/api/status", nil), &status)
	assert.True(t, status.Initialized)
	assert.Equal(t, 2, status.Records)
	assert.Equal(t, 2, status.Imports)
	assert.Equal(t, 1, status.TaxonomyVersion)
}

func TestReportPagingAndExport(t *testing.T) {
	r, _ := newTestRouter(t)
	decode(t, upload(t, r, "/api/import", map[string]string{"timesheet.csv": timesheetCSV}), nil)

	var page struct {
		Rows  []model.PivotRow `json:"rows"`
		Total int              `json:"total"`
	}
	resp := decode(t, doJSON(t, r, http.MethodPost, "/api/report", model.ReportConfig{
		GroupBy:  []string{"contractor"},
		Metrics:  []string{"totalHours"},
		Page:     1,
		PageSize: 1,
	}), &page)
	require.Equal(t, CodeOK, resp.Code, resp.Message)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, []string{"佐藤工業"}, page.Rows[0].Keys)
	assert.Equal(t, []float64{4}, page.Rows[0].Values)

	resp = decode(t, doJSON(t, r, http.MethodPost, "/api/report", model.ReportConfig{GroupBy: []string{"weather"}}), nil)
	assert.Equal(t, CodeBadRequest, resp.Code)

	var export struct {
		Token       string `json:"token"`
		DownloadURL string `json:"downloadUrl"`
		Rows        int    `json:"rows"`
	}
	resp = decode(t, doJSON(t, r, http.MethodPost, "/api/report/export", ExportRequest{Kind: "rows", Separator: ";"}), &export)
	require.Equal(t, CodeOK, resp.Code, resp.Message)
	assert.Equal(t, 2, export.Rows)
	assert.Equal(t, "/api/report/download/"+export.Token, export.DownloadURL)

	w := doJSON(t, r, http.MethodGet, export.DownloadURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "projectCode;subworkCode;"))

	// 令牌一次性
	w = doJSON(t, r, http.MethodGet, export.DownloadURL, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	resp = decode(t, doJSON(t, r, http.MethodPost, "/api/report/export", ExportRequest{Kind: "xlsx"}), nil)
	assert.Equal(t, CodeBadRequest, resp.Code)
}

func TestListAndClearRecords(t *testing.T) {
	r, session := newTestRouter(t)
	decode(t, upload(t, r, "/api/import", map[string]string{"timesheet.csv": timesheetCSV}), nil)
	session.ReplaceTaxonomy([]model.WorkCodeDefinition{{SubworkCode: "A01", MajorName: "土工"}})

	var list struct {
		Items []model.WorkRecord `json:"items"`
		Total int                `json:"total"`
	}
	decode(t, doJSON(t, r, http.MethodGet, "/api/records?project=S1002&page=1&pageSize=10", nil), &list)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "佐藤工業", list.Items[0].ContractorName)

	var cleared map[string]int
	decode(t, doJSON(t, r, http.MethodDelete, "/api/records", nil), &cleared)
	assert.Equal(t, 2, cleared["removed"])
	assert.Equal(t, 0, session.Status().Records)
	assert.Equal(t, 1, session.Taxonomy().Len())
}

func TestImportErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := decode(t, doJSON(t, r, http.MethodPost, "/api/import", nil), nil)
	assert.Equal(t, CodeBadRequest, resp.Code)

	resp = decode(t, upload(t, r, "/api/import", map[string]string{"blob.bin": "\x00\x01\x02\xff"}), nil)
	assert.Equal(t, CodeParse, resp.Code)

	resp = decode(t, upload(t, r, "/api/taxonomy", map[string]string{"timesheet.csv": timesheetCSV}), nil)
	assert.Equal(t, CodeTaxonomyMissing, resp.Code)
}

func TestImportStream(t *testing.T) {
	r, session := newTestRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "timesheet.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte(timesheetCSV))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import?stream=true", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, out, `"type":"start"`)
	assert.Contains(t, out, `"type":"merged"`)
	assert.Equal(t, 2, session.Status().Records)
}

func TestReportRowsRecordLookupAndImports(t *testing.T) {
	r, session := newTestRouter(t)
	decode(t, upload(t, r, "/api/import", map[string]string{"timesheet.csv": timesheetCSV}), nil)

	var rows []model.ReportRow
	resp := decode(t, doJSON(t, r, http.MethodGet, "/api/aggregate/rows", nil), &rows)
	require.Equal(t, CodeOK, resp.Code, resp.Message)
	require.Len(t, rows, 2)
	assert.Equal(t, "S1001", rows[0].ProjectCode)
	assert.Equal(t, 10.0, rows[0].TotalHours)
	assert.Equal(t, 0.2, rows[0].OvertimeFraction)

	decode(t, doJSON(t, r, http.MethodGet, "/api/aggregate/rows?project=S1002", nil), &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "B99", rows[0].SubworkCode)

	want := session.Records()[0]
	var got model.WorkRecord
	resp = decode(t, doJSON(t, r, http.MethodGet, "/api/records/"+want.ContentHash, nil), &got)
	require.Equal(t, CodeOK, resp.Code, resp.Message)
	assert.Equal(t, want.ID, got.ID)

	w := doJSON(t, r, http.MethodGet, "/api/records/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var logs []store.ImportLog
	decode(t, doJSON(t, r, http.MethodGet, "/api/imports", nil), &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "timesheet.csv", logs[0].Filename)
	assert.Equal(t, 2, logs[0].Summary.Inserted)
}

func TestListRecords_HugePage(t *testing.T) {
	r, _ := newTestRouter(t)
	decode(t, upload(t, r, "/api/import", map[string]string{"timesheet.csv": timesheetCSV}), nil)

	var list struct {
		Items []model.WorkRecord `json:"items"`
		Total int                `json:"total"`
	}
	resp := decode(t, doJSON(t, r, http.MethodGet, "/api/records?page=9223372036854775807&pageSize=2", nil), &list)
	require.Equal(t, CodeOK, resp.Code, resp.Message)
	assert.Equal(t, 2, list.Total)
	assert.Empty(t, list.Items)
}

func TestImportStrict(t *testing.T) {
	r, session := newTestRouter(t)
	bad := "日付,業者名,工事番号,工種コード,規内,規外\nnot-a-date,山田建設,S1001,A01,30,0\n"

	resp := decode(t, upload(t, r, "/api/import?strict=true", map[string]string{"bad.csv": bad}), nil)
	assert.Equal(t, CodeValidation, resp.Code)
	assert.Equal(t, 0, session.Status().Records)

	resp = decode(t, upload(t, r, "/api/import", map[string]string{"bad.csv": bad}), nil)
	assert.Equal(t, CodeOK, resp.Code)
	assert.Equal(t, 1, session.Status().Records)
}

func TestImportStreamError(t *testing.T) {
	r, _ := newTestRouter(t)

	w := upload(t, r, "/api/import?stream=true", map[string]string{"blob.bin": "\x00\x01\x02\xff"})
	out := w.Body.String()
	assert.Contains(t, out, `"type":"error"`)
	assert.Contains(t, out, `"code":2002`)
	assert.Contains(t, out, `"PARSE_FAILURE"`)
	assert.NotContains(t, out, `"type":"merged"`)
}

func TestDownloadStoreTakeOnce(t *testing.T) {
	s := newExportDownloadStore()
	token := s.put(filepath.Join(t.TempDir(), "x.csv"), "x.csv", time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.take(token); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)

	expired := s.put(filepath.Join(t.TempDir(), "y.csv"), "y.csv", time.Minute)
	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, ok := s.take(expired)
	assert.False(t, ok)
}
