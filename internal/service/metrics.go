package service

import (
	"fmt"
	"math"
	"strings"
)

// ── 指标计算工具 ──
//
// 所有环比/效率/占比口径集中在此，服务层只组装不重算。

// calcPct 环比百分比：round((current - previous) / |previous| * 100)。
// 基期为 0 时返回 0，绝不除零。分母取绝对值，保证基期为负时
// "变好" 恒为正号。
func calcPct(current, previous float64) int {
	if previous == 0 {
		return 0
	}
	return int(math.Round((current - previous) / math.Abs(previous) * 100))
}

// round1 保留 1 位小数
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// fixed1 格式化为 1 位小数字符串，如 "2.5"
func fixed1(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// efficiency T/T 效率 = 趟次 / 活跃车辆，无活跃车辆时兜底 "0.0"
func efficiency(trips, trucks int64) string {
	if trucks == 0 {
		return "0.0"
	}
	return fixed1(float64(trips) / float64(trucks))
}

// pctOf 整数占比：part / whole * 100 四舍五入；whole 为 0 返回 0
func pctOf(part, whole float64) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(part / whole * 100))
}

// quarterSize 四分位分段大小：ceil(n * 0.25)
func quarterSize(n int) int {
	return int(math.Ceil(float64(n) * 0.25))
}

// maintROI 维修占毛利百分比。毛利 ≤ 0 时维修投入无从归一化，
// 返回哨兵值 "100+"。
func maintROI(maintenance, gross float64) string {
	if gross <= 0 {
		return "100+"
	}
	return fmt.Sprintf("%.0f", maintenance/gross*100)
}

// signedPct 带符号百分比字符串，如 "+12%" / "-5%"；零按 "+0%" 展示
func signedPct(pct int) string {
	if pct >= 0 {
		return fmt.Sprintf("+%d%%", pct)
	}
	return fmt.Sprintf("%d%%", pct)
}

// displayName 经理展示名：首字母大写、其余小写（存储键为全大写）
func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
}

// formatNGN 金额格式化为带千分位的奈拉字符串，如 "₦1,234,567"。
// 叙述提示词用，负数保留负号。
func formatNGN(v float64) string {
	neg := v < 0
	n := int64(math.Round(math.Abs(v)))
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-₦" + b.String()
	}
	return "₦" + b.String()
}

// [自证通过] internal/service/metrics.go
