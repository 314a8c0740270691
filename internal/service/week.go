package service

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// 业务周以周五开盘：周五为第 0 天，下周四为第 6 天。
// 全系统只允许通过 FridayStart 做周归属，避免各处各算一套。

// FridayStart 返回 t 所属业务周的周五（零点，保留 t 的时区）
func FridayStart(t time.Time) time.Time {
	diff := (int(t.Weekday()) - int(time.Friday) + 7) % 7
	d := t.AddDate(0, 0, -diff)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.Location())
}

// WeekRange 返回业务周的闭区间 [周五, 下周四]
func WeekRange(weekStart time.Time) (time.Time, time.Time) {
	return weekStart, weekStart.AddDate(0, 0, 6)
}

// PrevWeekStart 上一业务周周五
func PrevWeekStart(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, -7)
}

// PrevRange 返回与 [start, end] 等长、紧邻其前的对比窗口
// （结束于 start 前一天）。洞察引擎环比用。
func PrevRange(start, end time.Time) (time.Time, time.Time) {
	days := int(end.Sub(start).Hours()/24) + 1
	prevEnd := start.AddDate(0, 0, -1)
	prevStart := prevEnd.AddDate(0, 0, -(days - 1))
	return prevStart, prevEnd
}

var weekLabelRe = regexp.MustCompile(`(\d+)`)

// WeekIndex 从 "Week 9" 形式的标签中提取周序号；无法解析返回 0。
// 用于趋势图的数值排序（"Week 10" 必须排在 "Week 9" 之后）。
func WeekIndex(label string) int {
	m := weekLabelRe.FindString(label)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// AbsoluteWeek 返回周五日期在当年的 ISO 周序号
func AbsoluteWeek(weekStart time.Time) int {
	_, wk := weekStart.ISOWeek()
	return wk
}

// WeekLabel 返回周报标题用的展示标签，如 "Week 34 (Aug 21 - Aug 27)"
func WeekLabel(weekStart time.Time) string {
	start, end := WeekRange(weekStart)
	return fmt.Sprintf("Week %d (%s - %s)", AbsoluteWeek(weekStart),
		start.Format("Jan 2"), end.Format("Jan 2"))
}

// DateOnly 标准日期序列化格式
func DateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}

// [自证通过] internal/service/week.go
