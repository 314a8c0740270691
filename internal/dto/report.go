package dto

// TripsBreakdown 周期趟次拆分
type TripsBreakdown struct {
	Total int `json:"total"`
	IT    int `json:"it"`
	NonIT int `json:"non_it"`
}

// TrucksInsight 车辆部署分类：三个桶互斥，零趟次车辆不入任何桶
type TrucksInsight struct {
	Total       int `json:"total"` // 周期内活跃车辆总数
	RevenueOnly int `json:"only_revenue"`
	ITOnly      int `json:"only_it"`
	DoubleDuty  int `json:"double_duty"`
}

// ReportTrend 周报 4 周趋势点（仅营收口径）
type ReportTrend struct {
	Week         string  `json:"week"` // 派生标签 "Week N"
	Trips        int     `json:"trips"`
	Profit       float64 `json:"profit"` // 净利
	ActiveTrucks int     `json:"active_trucks"`
	Efficiency   string  `json:"efficiency"`
}

// ManagerReport 周报车队经理行
type ManagerReport struct {
	Name            string  `json:"name"`  // 展示名（首字母大写）
	Trips           int     `json:"trips"` // 仅 Non-IT
	ActiveTrucks    int     `json:"active_trucks"`
	Profit          float64 `json:"profit"` // 净利
	ManagerBrands   string  `json:"manager_brands"`
	TrucksMetTarget int     `json:"trucks_met_target"` // 周期内跑满活动目标（≥3 Non-IT 趟）的车辆数
	TargetRate      int     `json:"target_rate"`       // 达标车辆占编制容量的百分比
	TotalCapacity   int     `json:"total_capacity"`    // 静态编制容量
	Utilization     int     `json:"utilization"`       // 活跃车辆 / 编制容量
	TruckDiff       int     `json:"truck_diff"`        // 活跃车辆数环比增减
	TripShare       int     `json:"trip_share"`        // 占全周期 Non-IT 趟次百分比
	Efficiency      string  `json:"efficiency"`
	WoW             string  `json:"wow"` // 净利环比，如 "+12%"
}

// BrandPerformance 周报品牌行（活跃口径 = 至少一趟 Non-IT）
type BrandPerformance struct {
	Name           string `json:"name"`
	Capacity       int    `json:"capacity"`
	ActiveTrucks   int    `json:"active_trucks"`
	UtilizationPct int    `json:"utilization_pct"`
	Trips          int    `json:"trips"` // 营收趟次
	TripShare      int    `json:"trip_share"`
	Efficiency     string `json:"efficiency"`
}

// BrandWeekPoint 品牌单周数据点
type BrandWeekPoint struct {
	Trips  int `json:"trips"`
	Trucks int `json:"trucks"`
}

// BrandTrend 品牌近 4 个业务周走势；缺数据的周补零点而非留空
type BrandTrend struct {
	Name    string           `json:"name"`
	Data    []BrandWeekPoint `json:"data"`
	Changes []int            `json:"changes"` // 相邻两周趟次环比，长度 = len(Data)-1
}

// NegativeTruck 负净利车辆行（按 truck+brand+manager 分组）
type NegativeTruck struct {
	TruckNumber  string  `json:"truck_number"`
	Brand        string  `json:"brand"`
	FleetManager string  `json:"fleet_manager"`
	GrossProfit  float64 `json:"gross_profit"`
	Maintenance  float64 `json:"maintenance"`
	NetProfit    float64 `json:"net_profit"`
	TotalTrips   int     `json:"total_trips"`
	MaintROI     string  `json:"maint_roi"` // 维修/毛利 百分比；毛利 ≤ 0 时为哨兵值 "100+"
}

// TruckProfit 四分位分段车辆行
type TruckProfit struct {
	ID          string  `json:"id"`
	Brand       string  `json:"brand"`
	FM          string  `json:"fm"`
	GrossProfit float64 `json:"gross_profit"`
	Maintenance float64 `json:"maintenance"`
	NetProfit   float64 `json:"net_profit"`
	Trips       int     `json:"trips"`
	ITTrips     int     `json:"it_trips"`
}

// WoWEntry 单项财务环比
type WoWEntry struct {
	LastWeek float64 `json:"last_week"`
	Pct      int     `json:"pct"`
}

// FinancialWoW 财务环比（毛利/维修/净利共用同一 calcPct 公式）
type FinancialWoW struct {
	Gross       WoWEntry `json:"gross"`
	Maintenance WoWEntry `json:"maintenance"`
	Net         WoWEntry `json:"net"`
}

// WeeklyReportMetrics 周报完整指标包。
// 一经返回视为不可变：叙述生成器与展示层只读，不回写聚合路径。
type WeeklyReportMetrics struct {
	WeekLabel       string             `json:"week_label"`
	AbsoluteWeek    int                `json:"absolute_week"`
	TripsBreakdown  TripsBreakdown     `json:"trips_breakdown"`
	TrucksInsight   TrucksInsight      `json:"trucks_insight"`
	GrossProfit     float64            `json:"gross_profit"`
	Maintenance     float64            `json:"maintenance"`
	NetProfit       float64            `json:"net_profit"`
	TruckChange     int                `json:"truck_change"`
	Utilization     int                `json:"utilization"`
	AvgTripPerTruck string             `json:"avg_trip_per_truck"`
	Trends          []ReportTrend      `json:"trends"`
	Managers        []ManagerReport    `json:"managers"`
	BrandPerf       []BrandPerformance `json:"brand_performance"`
	BrandTrends     []BrandTrend       `json:"brand_trend_data"`
	NegativeTrucks  []NegativeTruck    `json:"negative_profit_trucks"`
	Top25Percent    []TruckProfit      `json:"top_25_percent"`
	Bottom25Percent []TruckProfit      `json:"bottom_25_percent"` // 最差在前
	TopVolume       []TopTruck         `json:"top_volume"`
	TopNonITProfit  []TopTruck         `json:"top_non_it_profit"`
	TopITProfit     []TopTruck         `json:"top_it_profit"`
	FinancialWoW    FinancialWoW       `json:"financial_wow"`
}

// WeeklyReportResponse 周报接口响应：指标包 + AI 叙述
type WeeklyReportResponse struct {
	Metrics *WeeklyReportMetrics `json:"metrics"`
	Text    *NarrativeReport     `json:"text"`
}

// [自证通过] internal/dto/report.go
