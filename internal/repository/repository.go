package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Trip        TripRepository
	ReportCache ReportCacheRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Trip:        NewTripRepo(db),
		ReportCache: NewReportCacheRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
