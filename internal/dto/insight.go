package dto

// 洞察条目类型
const (
	InsightPositive = "positive"
	InsightNegative = "negative"
	InsightWarning  = "warning"
	InsightNeutral  = "neutral"
)

// Insight 规则驱动的洞察条目。空列表是合法结果，与错误严格区分。
type Insight struct {
	Type  string `json:"type"` // positive | negative | warning | neutral
	Title string `json:"title"`
	Text  string `json:"text"`
}

// NarrativeReport 外部模型生成的五段式周报叙述
type NarrativeReport struct {
	ExecutiveSummary string `json:"executive_summary"`
	BrandInsights    string `json:"brand_insights"`
	VolumeInsights   string `json:"volume_insights"`
	ProfitInsights   string `json:"profit_insights"`
	Projection       string `json:"projection"`
}

// [自证通过] internal/dto/insight.go
