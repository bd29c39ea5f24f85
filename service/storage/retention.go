/*
 * @module service/storage/retention
 * @description 分析记录保留期清理服务，基于cron每日定时删除过期记录
 * @architecture 分层架构 - 存储层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 定时触发 -> 过期记录删除 -> 清理结果记录日志
 * @rules 清理失败只记日志，不影响服务运行
 * @dependencies github.com/robfig/cron/v3, gorm.io/gorm
 * @refs service/storage/result_store.go
 */

package storage

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"insight-service/service/models"
)

// DefaultRetentionDays 分析记录默认保留天数
const DefaultRetentionDays = 30

// retentionCronSpec 每日凌晨2点执行清理
const retentionCronSpec = "0 0 2 * * *"

// RetentionService 分析记录保留期清理服务
type RetentionService struct {
	db            *gorm.DB
	store         *ResultStore
	cron          *cron.Cron
	retentionDays int
	started       bool
}

// NewRetentionService 创建保留期清理服务实例
func NewRetentionService(db *gorm.DB, store *ResultStore) *RetentionService {
	retentionDays := DefaultRetentionDays
	if v := os.Getenv("ANALYSIS_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			retentionDays = n
		}
	}
	return &RetentionService{
		db:            db,
		store:         store,
		cron:          cron.New(cron.WithSeconds()),
		retentionDays: retentionDays,
	}
}

// Start 启动定时清理任务
func (s *RetentionService) Start() error {
	if s.started {
		return nil
	}
	if _, err := s.cron.AddFunc(retentionCronSpec, func() {
		if err := s.CleanupExpired(context.Background()); err != nil {
			slog.Error("分析记录定时清理失败", "error", err)
		}
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.started = true
	slog.Info("分析记录保留期清理任务已启动", "retention_days", s.retentionDays)
	return nil
}

// Stop 停止定时清理任务
func (s *RetentionService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.started = false
}

// CleanupExpired 删除超过保留期的分析记录
func (s *RetentionService) CleanupExpired(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	startTime := time.Now()

	memoryRemoved := s.store.DeleteOlderThan(cutoff)

	var dbRemoved int64
	if s.db != nil {
		result := s.db.WithContext(ctx).
			Where("created_at < ?", cutoff).
			Delete(&models.AnalysisRecord{})
		if result.Error != nil {
			return result.Error
		}
		dbRemoved = result.RowsAffected
	}

	slog.Info("分析记录清理完成",
		"memory_removed", memoryRemoved,
		"db_removed", dbRemoved,
		"retention_days", s.retentionDays,
		"duration", time.Since(startTime))
	return nil
}
