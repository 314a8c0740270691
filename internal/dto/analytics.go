package dto

// Summary 周期汇总指标（周汇总与任意日期区间共用同一结构）
type Summary struct {
	TotalTrips       int     `json:"total_trips"`
	ITTrips          int     `json:"it_trips"`
	NonITTrips       int     `json:"non_it_trips"`
	TotalProfit      float64 `json:"total_profit"`
	ITProfit         float64 `json:"it_profit"`
	NonITProfit      float64 `json:"non_it_profit"`
	AvgProfitPerTrip float64 `json:"avg_profit_per_trip"`
	ActiveTrucks     int     `json:"active_trucks"`
	TotalExpenses    float64 `json:"total_expenses"`
	TotalMaintenance float64 `json:"total_maintenance"`
	UtilizationRate  float64 `json:"utilization_rate"`    // 0-100，保留 1 位小数；车队规模为 0 时恒为 0
	AvgTripsPerTruck float64 `json:"avg_trips_per_truck"` // 保留 1 位小数；无活跃车辆时为 0
	TotalFleet       int     `json:"total_fleet"`
}

// WeekTrend 按上传周标签分组的趋势点（仪表盘多周趋势图）
type WeekTrend struct {
	Week         string  `json:"week"`          // 如 "Week 9"
	Trips        int     `json:"trips"`         // Non-IT 趟次（图表的 Volume 口径）
	TotalTrips   int     `json:"total_trips"`   // 含 IT
	Profit       float64 `json:"profit"`        // 净利 = 毛利 - 维修
	ActiveTrucks int     `json:"active_trucks"`
	Efficiency   string  `json:"efficiency"` // T/T = Non-IT 趟次 / 活跃车辆，"0.0" 兜底
}

// ManagerRanking 单周车队经理排名（仪表盘）
type ManagerRanking struct {
	FleetManager     string  `json:"fleet_manager"`
	TotalTrips       int     `json:"total_trips"`
	ActiveTrucks     int     `json:"active_trucks"`
	TotalProfit      float64 `json:"total_profit"`
	AvgProfitPerTrip float64 `json:"avg_profit_per_trip"`
	TripsPerTruck    string  `json:"trips_per_truck"`
}

// RangeManager 日期区间内的车队经理排名
type RangeManager struct {
	Name         string  `json:"name"`
	Trips        int     `json:"trips"`
	ActiveTrucks int     `json:"active_trucks"`
	Profit       float64 `json:"profit"`
	Efficiency   string  `json:"efficiency"`
}

// TopTruck 车辆排行榜条目（趟次/利润榜共用）
type TopTruck struct {
	ID      string  `json:"id"` // truck_number
	Brand   string  `json:"brand"`
	Driver  string  `json:"driver,omitempty"`
	FM      string  `json:"fm"`
	Trips   int     `json:"trips"`
	ITTrips int     `json:"it_trips"`
	Profit  float64 `json:"profit"`
}

// TopBrand 品牌利润排行条目
type TopBrand struct {
	Name         string  `json:"name"`
	Trips        int     `json:"trips"`
	TotalProfit  float64 `json:"total_profit"`
	ActiveTrucks int     `json:"active_trucks"`
}

// TrendBucket 自定义区间趋势桶（按日/周/月）
type TrendBucket struct {
	Label       string  `json:"label"`
	TotalTrips  int     `json:"total_trips"`
	TotalProfit float64 `json:"total_profit"`
}

// DashboardResponse 单周仪表盘聚合响应
type DashboardResponse struct {
	Period        string           `json:"period"` // 业务周周五，YYYY-MM-DD
	Summary       *Summary         `json:"summary"`
	Managers      []ManagerRanking `json:"managers"`
	TopPerformers []TopTruck       `json:"top_performers"`
	TopBrands     []TopBrand       `json:"top_brands"`
}

// RangeDashboardResponse 自定义日期区间聚合响应
type RangeDashboardResponse struct {
	Summary       *Summary       `json:"summary"`
	Trends        []TrendBucket  `json:"trends"`
	Managers      []RangeManager `json:"managers"`
	TopPerformers []TopTruck     `json:"top_performers"`
	TopBrands     []TopBrand     `json:"top_brands"`
}

// [自证通过] internal/dto/analytics.go
