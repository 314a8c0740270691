package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Herlay/fleet-report/internal/model"
)

// 分类条件 SQL 片段：仅字面量 'IT' 记为内转，其余（含 NULL）为营收。
// 与 model.Trip.IsInternal 保持同一口径，所有聚合查询复用，不得改写。
const (
	condIT    = "trip_category = 'IT'"
	condNonIT = "(trip_category != 'IT' OR trip_category IS NULL)"
)

// ── 聚合查询行结构 ──

// SummaryRow 周期汇总查询行
type SummaryRow struct {
	TotalTrips       int64   `gorm:"column:total_trips"`
	ITTrips          int64   `gorm:"column:it_trips"`
	NonITTrips       int64   `gorm:"column:non_it_trips"`
	TotalProfit      float64 `gorm:"column:total_profit"`
	ITProfit         float64 `gorm:"column:it_profit"`
	NonITProfit      float64 `gorm:"column:non_it_profit"`
	AvgProfitPerTrip float64 `gorm:"column:avg_profit_per_trip"`
	ActiveTrucks     int64   `gorm:"column:active_trucks"`
	TotalExpenses    float64 `gorm:"column:total_expenses"`
	TotalMaintenance float64 `gorm:"column:total_maintenance"`
}

// WeekGroupRow 按上传周标签分组行
type WeekGroupRow struct {
	Week         string  `gorm:"column:week"`
	NonITTrips   int64   `gorm:"column:non_it_trips"`
	TotalTrips   int64   `gorm:"column:total_trips"`
	NetProfit    float64 `gorm:"column:net_profit"`
	ActiveTrucks int64   `gorm:"column:active_trucks"`
}

// TrendBucketRow 日/周/月趋势桶行
type TrendBucketRow struct {
	Label       string  `gorm:"column:label"`
	TotalTrips  int64   `gorm:"column:total_trips"`
	TotalProfit float64 `gorm:"column:total_profit"`
}

// ManagerWeekRow 单周经理聚合行
type ManagerWeekRow struct {
	FleetManager     string  `gorm:"column:fleet_manager"`
	TotalTrips       int64   `gorm:"column:total_trips"`
	ActiveTrucks     int64   `gorm:"column:active_trucks"`
	TotalProfit      float64 `gorm:"column:total_profit"`
	AvgProfitPerTrip float64 `gorm:"column:avg_profit_per_trip"`
}

// ManagerRangeRow 区间经理聚合行
type ManagerRangeRow struct {
	Name         string  `gorm:"column:name"`
	Trips        int64   `gorm:"column:trips"`
	ActiveTrucks int64   `gorm:"column:active_trucks"`
	Profit       float64 `gorm:"column:profit"`
}

// ManagerPeriodRow 周报经理聚合行（趟次为 Non-IT 口径，利润为净利）
type ManagerPeriodRow struct {
	Name         string  `gorm:"column:name"`
	Trips        int64   `gorm:"column:trips"`
	ActiveTrucks int64   `gorm:"column:active_trucks"`
	Profit       float64 `gorm:"column:profit"`
	Brands       string  `gorm:"column:brands"`
}

// ManagerTruckRow 单车 Non-IT 趟次行（活动目标判定用）
type ManagerTruckRow struct {
	Name        string `gorm:"column:name"`
	TruckNumber string `gorm:"column:truck_number"`
	TripCount   int64  `gorm:"column:trip_count"`
}

// ManagerNetRow 经理净利行（环比基期用）
type ManagerNetRow struct {
	Name   string  `gorm:"column:name"`
	Profit float64 `gorm:"column:profit"`
}

// ManagerTruckCountRow 经理活跃车辆数行（环比基期用）
type ManagerTruckCountRow struct {
	Name         string `gorm:"column:name"`
	ActiveTrucks int64  `gorm:"column:active_trucks"`
}

// BrandRangeRow 品牌区间统计行（洞察用）
type BrandRangeRow struct {
	Brand            string  `gorm:"column:brand"`
	TripCount        int64   `gorm:"column:trip_count"`
	TotalMaintenance float64 `gorm:"column:total_maintenance"`
	TotalProfit      float64 `gorm:"column:total_profit"`
}

// BrandPeriodRow 周报品牌聚合行（活跃口径 = 至少一趟 Non-IT）
type BrandPeriodRow struct {
	Name         string `gorm:"column:name"`
	ActiveTrucks int64  `gorm:"column:active_trucks"`
	RevenueTrips int64  `gorm:"column:revenue_trips"`
	TotalTrips   int64  `gorm:"column:total_trips"`
}

// BrandWeekRow 品牌按业务周历史行
type BrandWeekRow struct {
	Brand        string    `gorm:"column:brand"`
	WeekStart    time.Time `gorm:"column:week_start"`
	RevenueTrips int64     `gorm:"column:revenue_trips"`
	ActiveTrucks int64     `gorm:"column:active_trucks"`
}

// TruckPeriodRow 单车周期聚合行（四分位/负利/部署分类共用）
type TruckPeriodRow struct {
	ID           string  `gorm:"column:id"`
	Brand        string  `gorm:"column:brand"`
	FM           string  `gorm:"column:fm"`
	Driver       string  `gorm:"column:driver"`
	GrossProfit  float64 `gorm:"column:gross_profit"`
	Maintenance  float64 `gorm:"column:maintenance"`
	NetProfit    float64 `gorm:"column:net_profit"`
	Trips        int64   `gorm:"column:trips"`
	ITTrips      int64   `gorm:"column:it_trips"`
	NonITTrips   int64   `gorm:"column:non_it_trips"`
}

// TopTruckRow 排行榜行
type TopTruckRow struct {
	ID      string  `gorm:"column:id"`
	Brand   string  `gorm:"column:brand"`
	Driver  string  `gorm:"column:driver"`
	FM      string  `gorm:"column:fm"`
	Trips   int64   `gorm:"column:trips"`
	ITTrips int64   `gorm:"column:it_trips"`
	Profit  float64 `gorm:"column:profit"`
}

// FinancialTotalsRow 财务环比基期行
type FinancialTotalsRow struct {
	Gross float64 `gorm:"column:gross"`
	Maint float64 `gorm:"column:maint"`
}

// RouteRow 线路聚合行
type RouteRow struct {
	RouteName   string  `gorm:"column:route_name"`
	TripCount   int64   `gorm:"column:trip_count"`
	TotalProfit float64 `gorm:"column:total_profit"`
	AvgProfit   float64 `gorm:"column:avg_profit"`
}

// WeekNetRow 业务周净利趋势行（营收口径）
type WeekNetRow struct {
	WeekStart    time.Time `gorm:"column:week_start"`
	RevenueTrips int64     `gorm:"column:revenue_trips"`
	RevenueTrucks int64    `gorm:"column:revenue_trucks"`
	NetProfit    float64   `gorm:"column:net_profit"`
}

// ── TripRepository 接口 ──
//
// 设计说明：
//   - 每个方法对应一条聚合 SQL，只做过滤/分组/求和，派生计算
//     （百分比、容量归一化、四分位等）全部留在 Service 层；
//   - 日期区间均为闭区间 [start, end]；
//   - 环比基期的 7 天平移由调用方在 Go 侧完成，仓储不做日期运算。
type TripRepository interface {
	// BatchUpsert 以 sn 为幂等键批量写入；重复行按后写覆盖更新可变字段
	BatchUpsert(ctx context.Context, trips []model.Trip) error
	ListAll(ctx context.Context) ([]model.Trip, error)
	// LatestWeekStart 返回库中最近一个业务周周五；无数据返回 nil
	LatestWeekStart(ctx context.Context) (*time.Time, error)

	SummaryByRange(ctx context.Context, start, end time.Time) (*SummaryRow, error)
	SummaryByWeek(ctx context.Context, weekStart time.Time) (*SummaryRow, error)
	WeekGroups(ctx context.Context) ([]WeekGroupRow, error)
	TrendBuckets(ctx context.Context, start, end time.Time, format string) ([]TrendBucketRow, error)

	ManagerWeekStats(ctx context.Context, weekStart time.Time) ([]ManagerWeekRow, error)
	ManagerRangeStats(ctx context.Context, start, end time.Time) ([]ManagerRangeRow, error)
	ManagerPeriodStats(ctx context.Context, start, end time.Time) ([]ManagerPeriodRow, error)
	ManagerTruckTripCounts(ctx context.Context, start, end time.Time) ([]ManagerTruckRow, error)
	ManagerNetProfits(ctx context.Context, start, end time.Time) ([]ManagerNetRow, error)
	ManagerActiveTruckCounts(ctx context.Context, start, end time.Time) ([]ManagerTruckCountRow, error)

	BrandStats(ctx context.Context, start, end time.Time) ([]BrandRangeRow, error)
	BrandPeriodStats(ctx context.Context, start, end time.Time) ([]BrandPeriodRow, error)
	BrandWeeklyHistory(ctx context.Context, asOf time.Time) ([]BrandWeekRow, error)

	TruckPeriodStats(ctx context.Context, start, end time.Time) ([]TruckPeriodRow, error)
	NegativeProfitTrucks(ctx context.Context, start, end time.Time) ([]TruckPeriodRow, error)
	TopTrucksByVolume(ctx context.Context, start, end time.Time, limit int) ([]TopTruckRow, error)
	TopTrucksByProfit(ctx context.Context, start, end time.Time, limit int) ([]TopTruckRow, error)
	TopTrucksByNonITProfit(ctx context.Context, start, end time.Time, limit int) ([]TopTruckRow, error)
	TopTrucksByITProfit(ctx context.Context, start, end time.Time, limit int) ([]TopTruckRow, error)
	TopBrandsByProfit(ctx context.Context, start, end time.Time) ([]TopTruckRow, error)

	FinancialTotals(ctx context.Context, start, end time.Time) (*FinancialTotalsRow, error)
	RouteStats(ctx context.Context, start, end time.Time) ([]RouteRow, error)
	WeekNetTrends(ctx context.Context, anchorWeekStart time.Time, limit int) ([]WeekNetRow, error)
}

// ── TripRepository 实现 ──

type tripRepo struct {
	db *gorm.DB
}

func NewTripRepo(db *gorm.DB) TripRepository {
	return &tripRepo{db: db}
}

func (r *tripRepo) BatchUpsert(ctx context.Context, trips []model.Trip) error {
	if len(trips) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sn"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"trip_date", "profit", "maintenance", "fleet_manager", "brand",
				"week_start_date", "uploaded_week", "updated_at",
			}),
		}).
		CreateInBatches(&trips, 500).Error
}

func (r *tripRepo) ListAll(ctx context.Context) ([]model.Trip, error) {
	var trips []model.Trip
	err := r.db.WithContext(ctx).
		Order("trip_date DESC").
		Find(&trips).Error
	return trips, err
}

func (r *tripRepo) LatestWeekStart(ctx context.Context) (*time.Time, error) {
	var row struct {
		WeekStart *time.Time `gorm:"column:week_start"`
	}
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select("MAX(week_start_date) AS week_start").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return row.WeekStart, nil
}

const summarySelect = `
	COUNT(*) AS total_trips,
	COALESCE(SUM(CASE WHEN ` + condIT + ` THEN 1 ELSE 0 END), 0) AS it_trips,
	COALESCE(SUM(CASE WHEN ` + condNonIT + ` THEN 1 ELSE 0 END), 0) AS non_it_trips,
	COALESCE(SUM(profit), 0) AS total_profit,
	COALESCE(SUM(CASE WHEN ` + condIT + ` THEN profit ELSE 0 END), 0) AS it_profit,
	COALESCE(SUM(CASE WHEN ` + condNonIT + ` THEN profit ELSE 0 END), 0) AS non_it_profit,
	COALESCE(AVG(profit), 0) AS avg_profit_per_trip,
	COUNT(DISTINCT truck_number) AS active_trucks,
	COALESCE(SUM(road_expenses + dispatch + fuel_cost), 0) AS total_expenses,
	COALESCE(SUM(maintenance), 0) AS total_maintenance`

func (r *tripRepo) SummaryByRange(ctx context.Context, start, end time.Time) (*SummaryRow, error) {
	var row SummaryRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(summarySelect).
		Where("trip_date BETWEEN ? AND ?", start, end).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *tripRepo) SummaryByWeek(ctx context.Context, weekStart time.Time) (*SummaryRow, error) {
	var row SummaryRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(summarySelect).
		Where("week_start_date = ?", weekStart).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *tripRepo) WeekGroups(ctx context.Context) ([]WeekGroupRow, error) {
	var rows []WeekGroupRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`uploaded_week AS week,
			COALESCE(SUM(CASE WHEN `+condNonIT+` THEN 1 ELSE 0 END), 0) AS non_it_trips,
			COUNT(*) AS total_trips,
			COALESCE(SUM(profit - maintenance), 0) AS net_profit,
			COUNT(DISTINCT truck_number) AS active_trucks`).
		Where("uploaded_week IS NOT NULL AND uploaded_week != ''").
		Group("uploaded_week").
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) TrendBuckets(ctx context.Context, start, end time.Time, format string) ([]TrendBucketRow, error) {
	var rows []TrendBucketRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`to_char(trip_date, ?) AS label,
			COUNT(*) AS total_trips,
			COALESCE(SUM(profit), 0) AS total_profit`, format).
		Where("trip_date BETWEEN ? AND ?", start, end).
		Group("label").
		Order("label ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) ManagerWeekStats(ctx context.Context, weekStart time.Time) ([]ManagerWeekRow, error) {
	var rows []ManagerWeekRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`fleet_manager,
			COUNT(*) AS total_trips,
			COUNT(DISTINCT truck_number) AS active_trucks,
			COALESCE(SUM(profit), 0) AS total_profit,
			COALESCE(AVG(profit), 0) AS avg_profit_per_trip`).
		Where("week_start_date = ?", weekStart).
		Group("fleet_manager").
		Order("total_profit DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) ManagerRangeStats(ctx context.Context, start, end time.Time) ([]ManagerRangeRow, error) {
	var rows []ManagerRangeRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`fleet_manager AS name,
			COUNT(*) AS trips,
			COUNT(DISTINCT truck_number) AS active_trucks,
			COALESCE(SUM(profit), 0) AS profit`).
		Where("trip_date BETWEEN ? AND ?", start, end).
		Group("fleet_manager").
		Order("profit DESC").
		Scan(&rows).Error
	return rows, err
}

// ManagerPeriodStats 周报经理聚合。fleet_manager 已在导入时归一化为
// 规范大写键，这里不再做 UPPER(TRIM(...))。
func (r *tripRepo) ManagerPeriodStats(ctx context.Context, start, end time.Time) ([]ManagerPeriodRow, error) {
	var rows []ManagerPeriodRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`fleet_manager AS name,
			COALESCE(SUM(CASE WHEN `+condNonIT+` THEN 1 ELSE 0 END), 0) AS trips,
			COUNT(DISTINCT truck_number) AS active_trucks,
			COALESCE(SUM(profit - maintenance), 0) AS profit,
			COALESCE(STRING_AGG(DISTINCT brand, ' AND '), '') AS brands`).
		Where("trip_date BETWEEN ? AND ?", start, end).
		Group("fleet_manager").
		Order("profit DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) ManagerTruckTripCounts(ctx context.Context, start, end time.Time) ([]ManagerTruckRow, error) {
	var rows []ManagerTruckRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`fleet_manager AS name, truck_number, COUNT(*) AS trip_count`).
		Where("trip_date BETWEEN ? AND ? AND "+condNonIT, start, end).
		Group("fleet_manager, truck_number").
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) ManagerNetProfits(ctx context.Context, start, end time.Time) ([]ManagerNetRow, error) {
	var rows []ManagerNetRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`fleet_manager AS name, COALESCE(SUM(profit - maintenance), 0) AS profit`).
		Where("trip_date BETWEEN ? AND ?", start, end).
		Group("fleet_manager").
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) ManagerActiveTruckCounts(ctx context.Context, start, end time.Time) ([]ManagerTruckCountRow, error) {
	var rows []ManagerTruckCountRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`fleet_manager AS name, COUNT(DISTINCT truck_number) AS active_trucks`).
		Where("trip_date BETWEEN ? AND ?", start, end).
		Group("fleet_manager").
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) BrandStats(ctx context.Context, start, end time.Time) ([]BrandRangeRow, error) {
	var rows []BrandRangeRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`brand,
			COUNT(*) AS trip_count,
			COALESCE(SUM(maintenance), 0) AS total_maintenance,
			COALESCE(SUM(profit), 0) AS total_profit`).
		Where("trip_date BETWEEN ? AND ? AND brand IS NOT NULL AND brand != ''", start, end).
		Group("brand").
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) BrandPeriodStats(ctx context.Context, start, end time.Time) ([]BrandPeriodRow, error) {
	var rows []BrandPeriodRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`brand AS name,
			COUNT(DISTINCT CASE WHEN `+condNonIT+` THEN truck_number END) AS active_trucks,
			COALESCE(SUM(CASE WHEN `+condNonIT+` THEN 1 ELSE 0 END), 0) AS revenue_trips,
			COUNT(*) AS total_trips`).
		Where("trip_date BETWEEN ? AND ?", start, end).
		Group("brand").
		Scan(&rows).Error
	return rows, err
}

// BrandWeeklyHistory 品牌按业务周历史。直接按导入时派生的
// week_start_date 分组（全系统唯一的周五归属口径）。
func (r *tripRepo) BrandWeeklyHistory(ctx context.Context, asOf time.Time) ([]BrandWeekRow, error) {
	var rows []BrandWeekRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`brand,
			week_start_date AS week_start,
			COALESCE(SUM(CASE WHEN `+condNonIT+` THEN 1 ELSE 0 END), 0) AS revenue_trips,
			COUNT(DISTINCT CASE WHEN `+condNonIT+` THEN truck_number END) AS active_trucks`).
		Where("trip_date <= ? AND brand IS NOT NULL AND brand != '' AND week_start_date IS NOT NULL", asOf).
		Group("brand, week_start_date").
		Order("week_start ASC").
		Scan(&rows).Error
	return rows, err
}

const truckPeriodSelect = `
	truck_number AS id,
	COALESCE(MAX(brand), '') AS brand,
	COALESCE(MAX(fleet_manager), '') AS fm,
	COALESCE(MAX(driver_name), '') AS driver,
	COALESCE(SUM(profit), 0) AS gross_profit,
	COALESCE(SUM(maintenance), 0) AS maintenance,
	COALESCE(SUM(profit - maintenance), 0) AS net_profit,
	COUNT(*) AS trips,
	COALESCE(SUM(CASE WHEN ` + condIT + ` THEN 1 ELSE 0 END), 0) AS it_trips,
	COALESCE(SUM(CASE WHEN ` + condNonIT + ` THEN 1 ELSE 0 END), 0) AS non_it_trips`

func (r *tripRepo) TruckPeriodStats(ctx context.Context, start, end time.Time) ([]TruckPeriodRow, error) {
	var rows []TruckPeriodRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(truckPeriodSelect).
		Where("trip_date BETWEEN ? AND ?", start, end).
		Group("truck_number").
		Order("net_profit DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) NegativeProfitTrucks(ctx context.Context, start, end time.Time) ([]TruckPeriodRow, error) {
	var rows []TruckPeriodRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`truck_number AS id,
			brand,
			fleet_manager AS fm,
			COALESCE(SUM(profit), 0) AS gross_profit,
			COALESCE(SUM(maintenance), 0) AS maintenance,
			COALESCE(SUM(profit - maintenance), 0) AS net_profit,
			COUNT(*) AS trips`).
		Where("trip_date BETWEEN ? AND ?", start, end).
		Group("truck_number, brand, fleet_manager").
		Having("SUM(profit - maintenance) < 0").
		Order("net_profit ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) TopTrucksByVolume(ctx context.Context, start, end time.Time, limit int) ([]TopTruckRow, error) {
	var rows []TopTruckRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`truck_number AS id,
			COALESCE(MAX(driver_name), '') AS driver,
			COALESCE(MAX(brand), '') AS brand,
			COALESCE(MAX(fleet_manager), 'Not Assigned') AS fm,
			COUNT(*) AS trips,
			COALESCE(SUM(CASE WHEN `+condIT+` THEN 1 ELSE 0 END), 0) AS it_trips,
			COALESCE(SUM(profit), 0) AS profit`).
		Where("trip_date BETWEEN ? AND ?", start, end).
		Group("truck_number").
		Order("trips DESC, profit DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) TopTrucksByProfit(ctx context.Context, start, end time.Time, limit int) ([]TopTruckRow, error) {
	var rows []TopTruckRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`truck_number AS id,
			COALESCE(MAX(brand), '') AS brand,
			COALESCE(MAX(driver_name), '') AS driver,
			COALESCE(MAX(fleet_manager), 'Not Assigned') AS fm,
			COALESCE(SUM(profit), 0) AS profit,
			COALESCE(SUM(CASE WHEN `+condIT+` THEN 1 ELSE 0 END), 0) AS it_trips,
			COUNT(*) AS trips`).
		Where("trip_date BETWEEN ? AND ?", start, end).
		Group("truck_number").
		Order("profit DESC, trips DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) TopTrucksByNonITProfit(ctx context.Context, start, end time.Time, limit int) ([]TopTruckRow, error) {
	var rows []TopTruckRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`truck_number AS id,
			COALESCE(MAX(brand), '') AS brand,
			COALESCE(MAX(fleet_manager), '') AS fm,
			COUNT(*) AS trips,
			COALESCE(SUM(CASE WHEN `+condIT+` THEN 1 ELSE 0 END), 0) AS it_trips,
			COALESCE(SUM(profit), 0) AS profit`).
		Where("trip_date BETWEEN ? AND ? AND "+condNonIT, start, end).
		Group("truck_number").
		Order("profit DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) TopTrucksByITProfit(ctx context.Context, start, end time.Time, limit int) ([]TopTruckRow, error) {
	var rows []TopTruckRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`truck_number AS id,
			COALESCE(MAX(brand), '') AS brand,
			COALESCE(MAX(fleet_manager), '') AS fm,
			COUNT(*) AS trips,
			COUNT(*) AS it_trips,
			COALESCE(SUM(profit), 0) AS profit`).
		Where("trip_date BETWEEN ? AND ? AND "+condIT, start, end).
		Group("truck_number").
		Order("profit DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// TopBrandsByProfit 品牌利润排行。复用 TopTruckRow：id 字段承载品牌名。
func (r *tripRepo) TopBrandsByProfit(ctx context.Context, start, end time.Time) ([]TopTruckRow, error) {
	var rows []TopTruckRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`brand AS id,
			COUNT(*) AS trips,
			COALESCE(SUM(profit), 0) AS profit,
			COUNT(DISTINCT truck_number) AS it_trips`).
		Where("trip_date BETWEEN ? AND ? AND brand IS NOT NULL AND brand != ''", start, end).
		Group("brand").
		Order("profit DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) FinancialTotals(ctx context.Context, start, end time.Time) (*FinancialTotalsRow, error) {
	var row FinancialTotalsRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`COALESCE(SUM(profit), 0) AS gross, COALESCE(SUM(maintenance), 0) AS maint`).
		Where("trip_date BETWEEN ? AND ?", start, end).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *tripRepo) RouteStats(ctx context.Context, start, end time.Time) ([]RouteRow, error) {
	var rows []RouteRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`origin || ' ➝ ' || destination AS route_name,
			COUNT(*) AS trip_count,
			COALESCE(SUM(profit), 0) AS total_profit,
			COALESCE(AVG(profit), 0) AS avg_profit`).
		Where("trip_date BETWEEN ? AND ?", start, end).
		Group("origin, destination").
		Order("total_profit DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *tripRepo) WeekNetTrends(ctx context.Context, anchorWeekStart time.Time, limit int) ([]WeekNetRow, error) {
	var rows []WeekNetRow
	err := r.db.WithContext(ctx).Model(&model.Trip{}).
		Select(`week_start_date AS week_start,
			COALESCE(SUM(CASE WHEN `+condNonIT+` THEN 1 ELSE 0 END), 0) AS revenue_trips,
			COUNT(DISTINCT CASE WHEN `+condNonIT+` THEN truck_number END) AS revenue_trucks,
			COALESCE(SUM(profit - maintenance), 0) AS net_profit`).
		Where("week_start_date IS NOT NULL AND week_start_date <= ?", anchorWeekStart).
		Group("week_start_date").
		Order("week_start DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// [自证通过] internal/repository/trip_repo.go
