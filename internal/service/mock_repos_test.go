package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Herlay/fleet-report/internal/model"
	"github.com/Herlay/fleet-report/internal/repository"
)

// ── Mock TripRepository ──
//
// 内存实现：在 Go 侧复算各聚合查询的语义，供服务层测试使用。

type mockTripRepo struct {
	trips []model.Trip
}

func newMockTripRepo() *mockTripRepo {
	return &mockTripRepo{}
}

func isIT(t *model.Trip) bool {
	return t.TripCategory != nil && *t.TripCategory == model.CategoryInternal
}

func inRange(t *model.Trip, start, end time.Time) bool {
	return !t.TripDate.Before(start) && !t.TripDate.After(end)
}

func (m *mockTripRepo) BatchUpsert(_ context.Context, trips []model.Trip) error {
	for _, in := range trips {
		found := false
		for i := range m.trips {
			if m.trips[i].SN == in.SN {
				m.trips[i].TripDate = in.TripDate
				m.trips[i].Profit = in.Profit
				m.trips[i].Maintenance = in.Maintenance
				m.trips[i].FleetManager = in.FleetManager
				m.trips[i].Brand = in.Brand
				m.trips[i].WeekStartDate = in.WeekStartDate
				m.trips[i].UploadedWeek = in.UploadedWeek
				found = true
				break
			}
		}
		if !found {
			m.trips = append(m.trips, in)
		}
	}
	return nil
}

func (m *mockTripRepo) ListAll(_ context.Context) ([]model.Trip, error) {
	out := make([]model.Trip, len(m.trips))
	copy(out, m.trips)
	sort.Slice(out, func(i, j int) bool { return out[i].TripDate.After(out[j].TripDate) })
	return out, nil
}

func (m *mockTripRepo) LatestWeekStart(_ context.Context) (*time.Time, error) {
	var latest *time.Time
	for i := range m.trips {
		ws := m.trips[i].WeekStartDate
		if ws == nil {
			continue
		}
		if latest == nil || ws.After(*latest) {
			v := *ws
			latest = &v
		}
	}
	return latest, nil
}

func (m *mockTripRepo) summarize(filter func(*model.Trip) bool) *repository.SummaryRow {
	row := &repository.SummaryRow{}
	trucks := make(map[string]bool)
	for i := range m.trips {
		t := &m.trips[i]
		if !filter(t) {
			continue
		}
		row.TotalTrips++
		row.TotalProfit += t.Profit
		row.TotalExpenses += t.RoadExpenses + t.Dispatch + t.FuelCost
		row.TotalMaintenance += t.Maintenance
		trucks[t.TruckNumber] = true
		if isIT(t) {
			row.ITTrips++
			row.ITProfit += t.Profit
		} else {
			row.NonITTrips++
			row.NonITProfit += t.Profit
		}
	}
	row.ActiveTrucks = int64(len(trucks))
	if row.TotalTrips > 0 {
		row.AvgProfitPerTrip = row.TotalProfit / float64(row.TotalTrips)
	}
	return row
}

func (m *mockTripRepo) SummaryByRange(_ context.Context, start, end time.Time) (*repository.SummaryRow, error) {
	return m.summarize(func(t *model.Trip) bool { return inRange(t, start, end) }), nil
}

func (m *mockTripRepo) SummaryByWeek(_ context.Context, weekStart time.Time) (*repository.SummaryRow, error) {
	return m.summarize(func(t *model.Trip) bool {
		return t.WeekStartDate != nil && t.WeekStartDate.Equal(weekStart)
	}), nil
}

func (m *mockTripRepo) WeekGroups(_ context.Context) ([]repository.WeekGroupRow, error) {
	type agg struct {
		row    repository.WeekGroupRow
		trucks map[string]bool
	}
	groups := make(map[string]*agg)
	for i := range m.trips {
		t := &m.trips[i]
		if t.UploadedWeek == "" {
			continue
		}
		g, ok := groups[t.UploadedWeek]
		if !ok {
			g = &agg{row: repository.WeekGroupRow{Week: t.UploadedWeek}, trucks: make(map[string]bool)}
			groups[t.UploadedWeek] = g
		}
		g.row.TotalTrips++
		g.row.NetProfit += t.Profit - t.Maintenance
		g.trucks[t.TruckNumber] = true
		if !isIT(t) {
			g.row.NonITTrips++
		}
	}
	out := make([]repository.WeekGroupRow, 0, len(groups))
	for _, g := range groups {
		g.row.ActiveTrucks = int64(len(g.trucks))
		out = append(out, g.row)
	}
	return out, nil
}

func (m *mockTripRepo) TrendBuckets(_ context.Context, start, end time.Time, format string) ([]repository.TrendBucketRow, error) {
	label := func(d time.Time) string {
		switch format {
		case "IYYY-IW":
			y, w := d.ISOWeek()
			return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006") + "-" + twoDigit(w)
		case "YYYY-MM":
			return d.Format("2006-01")
		default:
			return d.Format("2006-01-02")
		}
	}
	buckets := make(map[string]*repository.TrendBucketRow)
	for i := range m.trips {
		t := &m.trips[i]
		if !inRange(t, start, end) {
			continue
		}
		key := label(t.TripDate)
		b, ok := buckets[key]
		if !ok {
			b = &repository.TrendBucketRow{Label: key}
			buckets[key] = b
		}
		b.TotalTrips++
		b.TotalProfit += t.Profit
	}
	out := make([]repository.TrendBucketRow, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func twoDigit(n int) string {
	if n < 10 {
		return "0" + string(rune('0'+n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}

func (m *mockTripRepo) ManagerWeekStats(_ context.Context, weekStart time.Time) ([]repository.ManagerWeekRow, error) {
	type agg struct {
		row    repository.ManagerWeekRow
		trucks map[string]bool
	}
	groups := make(map[string]*agg)
	for i := range m.trips {
		t := &m.trips[i]
		if t.WeekStartDate == nil || !t.WeekStartDate.Equal(weekStart) {
			continue
		}
		g, ok := groups[t.FleetManager]
		if !ok {
			g = &agg{row: repository.ManagerWeekRow{FleetManager: t.FleetManager}, trucks: make(map[string]bool)}
			groups[t.FleetManager] = g
		}
		g.row.TotalTrips++
		g.row.TotalProfit += t.Profit
		g.trucks[t.TruckNumber] = true
	}
	out := make([]repository.ManagerWeekRow, 0, len(groups))
	for _, g := range groups {
		g.row.ActiveTrucks = int64(len(g.trucks))
		if g.row.TotalTrips > 0 {
			g.row.AvgProfitPerTrip = g.row.TotalProfit / float64(g.row.TotalTrips)
		}
		out = append(out, g.row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalProfit > out[j].TotalProfit })
	return out, nil
}

func (m *mockTripRepo) ManagerRangeStats(_ context.Context, start, end time.Time) ([]repository.ManagerRangeRow, error) {
	type agg struct {
		row    repository.ManagerRangeRow
		trucks map[string]bool
	}
	groups := make(map[string]*agg)
	for i := range m.trips {
		t := &m.trips[i]
		if !inRange(t, start, end) {
			continue
		}
		g, ok := groups[t.FleetManager]
		if !ok {
			g = &agg{row: repository.ManagerRangeRow{Name: t.FleetManager}, trucks: make(map[string]bool)}
			groups[t.FleetManager] = g
		}
		g.row.Trips++
		g.row.Profit += t.Profit
		g.trucks[t.TruckNumber] = true
	}
	out := make([]repository.ManagerRangeRow, 0, len(groups))
	for _, g := range groups {
		g.row.ActiveTrucks = int64(len(g.trucks))
		out = append(out, g.row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Profit > out[j].Profit })
	return out, nil
}

func (m *mockTripRepo) ManagerPeriodStats(_ context.Context, start, end time.Time) ([]repository.ManagerPeriodRow, error) {
	type agg struct {
		row    repository.ManagerPeriodRow
		trucks map[string]bool
		brands map[string]bool
	}
	groups := make(map[string]*agg)
	for i := range m.trips {
		t := &m.trips[i]
		if !inRange(t, start, end) {
			continue
		}
		g, ok := groups[t.FleetManager]
		if !ok {
			g = &agg{
				row:    repository.ManagerPeriodRow{Name: t.FleetManager},
				trucks: make(map[string]bool),
				brands: make(map[string]bool),
			}
			groups[t.FleetManager] = g
		}
		if !isIT(t) {
			g.row.Trips++
		}
		g.row.Profit += t.Profit - t.Maintenance
		g.trucks[t.TruckNumber] = true
		if t.Brand != "" {
			g.brands[t.Brand] = true
		}
	}
	out := make([]repository.ManagerPeriodRow, 0, len(groups))
	for _, g := range groups {
		g.row.ActiveTrucks = int64(len(g.trucks))
		brands := make([]string, 0, len(g.brands))
		for b := range g.brands {
			brands = append(brands, b)
		}
		sort.Strings(brands)
		g.row.Brands = strings.Join(brands, " AND ")
		out = append(out, g.row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Profit > out[j].Profit })
	return out, nil
}

func (m *mockTripRepo) ManagerTruckTripCounts(_ context.Context, start, end time.Time) ([]repository.ManagerTruckRow, error) {
	counts := make(map[[2]string]int64)
	for i := range m.trips {
		t := &m.trips[i]
		if !inRange(t, start, end) || isIT(t) {
			continue
		}
		counts[[2]string{t.FleetManager, t.TruckNumber}]++
	}
	out := make([]repository.ManagerTruckRow, 0, len(counts))
	for k, n := range counts {
		out = append(out, repository.ManagerTruckRow{Name: k[0], TruckNumber: k[1], TripCount: n})
	}
	return out, nil
}

func (m *mockTripRepo) ManagerNetProfits(_ context.Context, start, end time.Time) ([]repository.ManagerNetRow, error) {
	nets := make(map[string]float64)
	for i := range m.trips {
		t := &m.trips[i]
		if !inRange(t, start, end) {
			continue
		}
		nets[t.FleetManager] += t.Profit - t.Maintenance
	}
	out := make([]repository.ManagerNetRow, 0, len(nets))
	for name, p := range nets {
		out = append(out, repository.ManagerNetRow{Name: name, Profit: p})
	}
	return out, nil
}

func (m *mockTripRepo) ManagerActiveTruckCounts(_ context.Context, start, end time.Time) ([]repository.ManagerTruckCountRow, error) {
	trucks := make(map[string]map[string]bool)
	for i := range m.trips {
		t := &m.trips[i]
		if !inRange(t, start, end) {
			continue
		}
		if trucks[t.FleetManager] == nil {
			trucks[t.FleetManager] = make(map[string]bool)
		}
		trucks[t.FleetManager][t.TruckNumber] = true
	}
	out := make([]repository.ManagerTruckCountRow, 0, len(trucks))
	for name, set := range trucks {
		out = append(out, repository.ManagerTruckCountRow{Name: name, ActiveTrucks: int64(len(set))})
	}
	return out, nil
}

func (m *mockTripRepo) BrandStats(_ context.Context, start, end time.Time) ([]repository.BrandRangeRow, error) {
	groups := make(map[string]*repository.BrandRangeRow)
	for i := range m.trips {
		t := &m.trips[i]
		if !inRange(t, start, end) || t.Brand == "" {
			continue
		}
		g, ok := groups[t.Brand]
		if !ok {
			g = &repository.BrandRangeRow{Brand: t.Brand}
			groups[t.Brand] = g
		}
		g.TripCount++
		g.TotalMaintenance += t.Maintenance
		g.TotalProfit += t.Profit
	}
	out := make([]repository.BrandRangeRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	return out, nil
}

func (m *mockTripRepo) BrandPeriodStats(_ context.Context, start, end time.Time) ([]repository.BrandPeriodRow, error) {
	type agg struct {
		row    repository.BrandPeriodRow
		trucks map[string]bool
	}
	groups := make(map[string]*agg)
	for i := range m.trips {
		t := &m.trips[i]
		if !inRange(t, start, end) {
			continue
		}
		g, ok := groups[t.Brand]
		if !ok {
			g = &agg{row: repository.BrandPeriodRow{Name: t.Brand}, trucks: make(map[string]bool)}
			groups[t.Brand] = g
		}
		g.row.TotalTrips++
		if !isIT(t) {
			g.row.RevenueTrips++
			g.trucks[t.TruckNumber] = true
		}
	}
	out := make([]repository.BrandPeriodRow, 0, len(groups))
	for _, g := range groups {
		g.row.ActiveTrucks = int64(len(g.trucks))
		out = append(out, g.row)
	}
	return out, nil
}

func (m *mockTripRepo) BrandWeeklyHistory(_ context.Context, asOf time.Time) ([]repository.BrandWeekRow, error) {
	type key struct {
		brand string
		week  string
	}
	type agg struct {
		row    repository.BrandWeekRow
		trucks map[string]bool
	}
	groups := make(map[key]*agg)
	for i := range m.trips {
		t := &m.trips[i]
		if t.TripDate.After(asOf) || t.Brand == "" || t.WeekStartDate == nil {
			continue
		}
		k := key{brand: t.Brand, week: t.WeekStartDate.Format("2006-01-02")}
		g, ok := groups[k]
		if !ok {
			g = &agg{
				row:    repository.BrandWeekRow{Brand: t.Brand, WeekStart: *t.WeekStartDate},
				trucks: make(map[string]bool),
			}
			groups[k] = g
		}
		if !isIT(t) {
			g.row.RevenueTrips++
			g.trucks[t.TruckNumber] = true
		}
	}
	out := make([]repository.BrandWeekRow, 0, len(groups))
	for _, g := range groups {
		g.row.ActiveTrucks = int64(len(g.trucks))
		out = append(out, g.row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out, nil
}

func (m *mockTripRepo) truckStats(start, end time.Time) []repository.TruckPeriodRow {
	groups := make(map[string]*repository.TruckPeriodRow)
	for i := range m.trips {
		t := &m.trips[i]
		if !inRange(t, start, end) {
			continue
		}
		g, ok := groups[t.TruckNumber]
		if !ok {
			g = &repository.TruckPeriodRow{ID: t.TruckNumber, Brand: t.Brand, FM: t.FleetManager, Driver: t.DriverName}
			groups[t.TruckNumber] = g
		}
		g.GrossProfit += t.Profit
		g.Maintenance += t.Maintenance
		g.NetProfit += t.Profit - t.Maintenance
		g.Trips++
		if isIT(t) {
			g.ITTrips++
		} else {
			g.NonITTrips++
		}
	}
	out := make([]repository.TruckPeriodRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	return out
}

func (m *mockTripRepo) TruckPeriodStats(_ context.Context, start, end time.Time) ([]repository.TruckPeriodRow, error) {
	out := m.truckStats(start, end)
	sort.Slice(out, func(i, j int) bool { return out[i].NetProfit > out[j].NetProfit })
	return out, nil
}

func (m *mockTripRepo) NegativeProfitTrucks(_ context.Context, start, end time.Time) ([]repository.TruckPeriodRow, error) {
	all := m.truckStats(start, end)
	out := make([]repository.TruckPeriodRow, 0)
	for _, r := range all {
		if r.NetProfit < 0 {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NetProfit < out[j].NetProfit })
	return out, nil
}

func (m *mockTripRepo) topTrucks(start, end time.Time, limit int, filter func(*model.Trip) bool, less func(a, b repository.TopTruckRow) bool) []repository.TopTruckRow {
	groups := make(map[string]*repository.TopTruckRow)
	for i := range m.trips {
		t := &m.trips[i]
		if !inRange(t, start, end) || !filter(t) {
			continue
		}
		g, ok := groups[t.TruckNumber]
		if !ok {
			g = &repository.TopTruckRow{ID: t.TruckNumber, Brand: t.Brand, Driver: t.DriverName, FM: t.FleetManager}
			groups[t.TruckNumber] = g
		}
		g.Trips++
		g.Profit += t.Profit
		if isIT(t) {
			g.ITTrips++
		}
	}
	out := make([]repository.TopTruckRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *mockTripRepo) TopTrucksByVolume(_ context.Context, start, end time.Time, limit int) ([]repository.TopTruckRow, error) {
	return m.topTrucks(start, end, limit,
		func(*model.Trip) bool { return true },
		func(a, b repository.TopTruckRow) bool {
			if a.Trips != b.Trips {
				return a.Trips > b.Trips
			}
			return a.Profit > b.Profit
		}), nil
}

func (m *mockTripRepo) TopTrucksByProfit(_ context.Context, start, end time.Time, limit int) ([]repository.TopTruckRow, error) {
	return m.topTrucks(start, end, limit,
		func(*model.Trip) bool { return true },
		func(a, b repository.TopTruckRow) bool { return a.Profit > b.Profit }), nil
}

func (m *mockTripRepo) TopTrucksByNonITProfit(_ context.Context, start, end time.Time, limit int) ([]repository.TopTruckRow, error) {
	return m.topTrucks(start, end, limit,
		func(t *model.Trip) bool { return !isIT(t) },
		func(a, b repository.TopTruckRow) bool { return a.Profit > b.Profit }), nil
}

func (m *mockTripRepo) TopTrucksByITProfit(_ context.Context, start, end time.Time, limit int) ([]repository.TopTruckRow, error) {
	return m.topTrucks(start, end, limit,
		func(t *model.Trip) bool { return isIT(t) },
		func(a, b repository.TopTruckRow) bool { return a.Profit > b.Profit }), nil
}

func (m *mockTripRepo) TopBrandsByProfit(_ context.Context, start, end time.Time) ([]repository.TopTruckRow, error) {
	type agg struct {
		row    repository.TopTruckRow
		trucks map[string]bool
	}
	groups := make(map[string]*agg)
	for i := range m.trips {
		t := &m.trips[i]
		if !inRange(t, start, end) || t.Brand == "" {
			continue
		}
		g, ok := groups[t.Brand]
		if !ok {
			g = &agg{row: repository.TopTruckRow{ID: t.Brand}, trucks: make(map[string]bool)}
			groups[t.Brand] = g
		}
		g.row.Trips++
		g.row.Profit += t.Profit
		g.trucks[t.TruckNumber] = true
	}
	out := make([]repository.TopTruckRow, 0, len(groups))
	for _, g := range groups {
		g.row.ITTrips = int64(len(g.trucks))
		out = append(out, g.row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Profit > out[j].Profit })
	return out, nil
}

func (m *mockTripRepo) FinancialTotals(_ context.Context, start, end time.Time) (*repository.FinancialTotalsRow, error) {
	row := &repository.FinancialTotalsRow{}
	for i := range m.trips {
		t := &m.trips[i]
		if !inRange(t, start, end) {
			continue
		}
		row.Gross += t.Profit
		row.Maint += t.Maintenance
	}
	return row, nil
}

func (m *mockTripRepo) RouteStats(_ context.Context, start, end time.Time) ([]repository.RouteRow, error) {
	groups := make(map[string]*repository.RouteRow)
	for i := range m.trips {
		t := &m.trips[i]
		if !inRange(t, start, end) {
			continue
		}
		name := t.Origin + " ➝ " + t.Destination
		g, ok := groups[name]
		if !ok {
			g = &repository.RouteRow{RouteName: name}
			groups[name] = g
		}
		g.TripCount++
		g.TotalProfit += t.Profit
	}
	out := make([]repository.RouteRow, 0, len(groups))
	for _, g := range groups {
		if g.TripCount > 0 {
			g.AvgProfit = g.TotalProfit / float64(g.TripCount)
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalProfit > out[j].TotalProfit })
	return out, nil
}

func (m *mockTripRepo) WeekNetTrends(_ context.Context, anchor time.Time, limit int) ([]repository.WeekNetRow, error) {
	type agg struct {
		row    repository.WeekNetRow
		trucks map[string]bool
	}
	groups := make(map[string]*agg)
	for i := range m.trips {
		t := &m.trips[i]
		if t.WeekStartDate == nil || t.WeekStartDate.After(anchor) {
			continue
		}
		k := t.WeekStartDate.Format("2006-01-02")
		g, ok := groups[k]
		if !ok {
			g = &agg{row: repository.WeekNetRow{WeekStart: *t.WeekStartDate}, trucks: make(map[string]bool)}
			groups[k] = g
		}
		g.row.NetProfit += t.Profit - t.Maintenance
		if !isIT(t) {
			g.row.RevenueTrips++
			g.trucks[t.TruckNumber] = true
		}
	}
	out := make([]repository.WeekNetRow, 0, len(groups))
	for _, g := range groups {
		g.row.RevenueTrucks = int64(len(g.trucks))
		out = append(out, g.row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ── Mock ReportCacheRepository ──

type mockReportCacheRepo struct {
	entries map[string]*model.ReportCache
	puts    int
}

func newMockReportCacheRepo() *mockReportCacheRepo {
	return &mockReportCacheRepo{entries: make(map[string]*model.ReportCache)}
}

func (m *mockReportCacheRepo) Get(_ context.Context, key string) (*model.ReportCache, error) {
	if e, ok := m.entries[key]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReportCacheRepo) Put(_ context.Context, entry *model.ReportCache) error {
	m.puts++
	m.entries[entry.WeekIdentifier] = entry
	return nil
}

// [自证通过] internal/service/mock_repos_test.go
