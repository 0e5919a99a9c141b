package parser

// SheetType Sheet 类型
type SheetType string

const (
	SheetTypeTimesheet SheetType = "timesheet" // 工时明细
	SheetTypeTaxonomy  SheetType = "taxonomy"  // 工种分类表
	SheetTypeUnknown   SheetType = "unknown"
)

// Sheet 工作表：名称 + 原始单元格二维数组
type Sheet struct {
	Name string
	Rows [][]any
}

// Workbook 已加载的工作簿（按原顺序保存各 Sheet）
type Workbook struct {
	Filename string
	Sheets   []Sheet
}

// Sheet 按名称查找工作表
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i], true
		}
	}
	return nil, false
}

// SheetRecognitionResult Sheet 识别结果
type SheetRecognitionResult struct {
	SheetName  string    `json:"sheetName"`
	SheetType  SheetType `json:"sheetType"`
	Confidence float64   `json:"confidence"` // 置信度 0-1
	HeaderRow  int       `json:"headerRow"`  // 识别出的表头行（0 起）
}
