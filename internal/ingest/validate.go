package ingest

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"worktally/internal/model"
)

// 默认校验上限
const (
	DefaultMaxHours     = 24.0
	DefaultMaxHeadcount = 1000.0
)

// Limits 数值范围校验上限
type Limits struct {
	MaxHours     float64 `json:"maxHours" toml:"max_hours"`
	MaxHeadcount float64 `json:"maxHeadcount" toml:"max_headcount"`
}

// DefaultLimits 默认上限
func DefaultLimits() Limits {
	return Limits{MaxHours: DefaultMaxHours, MaxHeadcount: DefaultMaxHeadcount}
}

// RecordIssue 单条记录的校验问题（不影响记录本身被返回）
type RecordIssue struct {
	RecordID string   `json:"recordId"`
	RowNo    int      `json:"rowNo"`
	Sheet    string   `json:"sheet,omitempty"`
	Messages []string `json:"messages"`
}

// Validator 记录校验器
type Validator struct {
	v      *validator.Validate
	limits Limits
}

// NewValidator 创建校验器；非正的上限视为不限制
func NewValidator(limits Limits) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("maxhours", func(fl validator.FieldLevel) bool {
		return limits.MaxHours <= 0 || fl.Field().Float() <= limits.MaxHours
	})
	_ = v.RegisterValidation("maxheadcount", func(fl validator.FieldLevel) bool {
		return limits.MaxHeadcount <= 0 || fl.Field().Float() <= limits.MaxHeadcount
	})
	return &Validator{v: v, limits: limits}
}

// Check 校验单条记录，返回字段级消息
func (v *Validator) Check(r *model.WorkRecord) []string {
	err := v.v.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, v.message(fe))
	}
	return msgs
}

// Validate 校验整批记录，只返回有问题的记录
func (v *Validator) Validate(records []model.WorkRecord) []RecordIssue {
	var issues []RecordIssue
	for i := range records {
		msgs := v.Check(&records[i])
		if len(msgs) == 0 {
			continue
		}
		issues = append(issues, RecordIssue{
			RecordID: records[i].ID,
			RowNo:    records[i].RowNo,
			Sheet:    records[i].SourceSheet,
			Messages: msgs,
		})
	}
	return issues
}

func (v *Validator) message(fe validator.FieldError) string {
	field := jsonFieldName(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field)
	case "gte":
		return fmt.Sprintf("%s must not be negative", field)
	case "maxhours":
		return fmt.Sprintf("%s exceeds %.1f hours", field, v.limits.MaxHours)
	case "maxheadcount":
		return fmt.Sprintf("%s exceeds %.0f", field, v.limits.MaxHeadcount)
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// jsonFieldName 结构体字段名 → 规范字段名（首字母小写）
func jsonFieldName(name string) string {
	if name == "" {
		return name
	}
	b := []byte(name)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

// ValidationError 把校验问题包装为 VALIDATION_FAILURE（严格模式下返回）
func ValidationError(issues []RecordIssue) *Error {
	if len(issues) == 0 {
		return nil
	}
	e := newError(CodeValidationFailure, fmt.Sprintf("%d record(s) failed validation", len(issues)), nil)
	e.Details = fmt.Sprintf("first issue at row %d: %v", issues[0].RowNo, issues[0].Messages)
	return e
}
