package exporter

import "github.com/sirupsen/logrus"

// ProgressEvent 导出进度：已写出行数 / 总行数
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Written int    `json:"written"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
}

// ProgressFunc 导出进度回调，可为 nil
type ProgressFunc func(ProgressEvent)

// LogProgress 将导出进度写入日志（debug 级别，done 为 info）
func LogProgress(entry *logrus.Entry) ProgressFunc {
	return func(ev ProgressEvent) {
		e := entry.WithFields(logrus.Fields{
			"stage":   ev.Stage,
			"written": ev.Written,
			"total":   ev.Total,
			"percent": ev.Percent,
		})
		if ev.Stage == StageDone {
			e.Info("export written")
			return
		}
		e.Debug("export progress")
	}
}

// 导出阶段
const (
	StageHeader = "header"
	StageRows   = "rows"
	StageDone   = "done"
)

func emitProgress(progress ProgressFunc, stage string, written, total int) {
	if progress == nil {
		return
	}
	percent := 100
	if total > 0 {
		percent = written * 100 / total
	}
	progress(ProgressEvent{
		Stage:   stage,
		Written: written,
		Total:   total,
		Percent: min(max(percent, 0), 100),
	})
}
