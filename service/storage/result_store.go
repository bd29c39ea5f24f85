/*
 * @module service/storage/result_store
 * @description 处理结果存储：互斥保护的内存注册表，可选gorm持久化与redis缓存
 * @architecture 分层架构 - 存储层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 分析完成 -> 结果登记 -> 按ID读取/删除 -> 保留期清理
 * @rules 并发HTTP处理器可同时读写，map访问必须持锁；存储对象由调用方显式构造并持有，无全局可变注册表
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs api/controllers, service/storage/retention.go
 */

package storage

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"insight-service/service/models"
)

// ErrResultNotFound 指定ID的处理结果不存在
var ErrResultNotFound = errors.New("处理结果不存在")

// StoredResult 已登记的处理结果
type StoredResult struct {
	ID        string
	Result    *models.ProcessingResult
	Package   *models.InsightPackage
	CreatedAt time.Time
}

// ResultSummary 结果列表项
type ResultSummary struct {
	ID           string            `json:"id"`
	Filename     string            `json:"filename,omitempty"`
	Domain       models.DataDomain `json:"domain"`
	TotalRecords int               `json:"total_records"`
	OverallScore float64           `json:"overall_score"`
	HasPackage   bool              `json:"has_package"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ResultStore 处理结果存储。db 与 cache 均可为 nil（仅内存模式）。
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]*StoredResult
	db      *gorm.DB
	cache   *ResultCache
}

// NewResultStore 创建结果存储实例
func NewResultStore(db *gorm.DB, cache *ResultCache) *ResultStore {
	return &ResultStore{
		results: make(map[string]*StoredResult),
		db:      db,
		cache:   cache,
	}
}

// Save 登记处理结果并返回分配的ID
func (s *ResultStore) Save(result *models.ProcessingResult) (string, error) {
	if result == nil {
		return "", errors.New("处理结果为空")
	}
	id := uuid.NewString()
	snapshot := StoredResult{
		ID:        id,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}

	entry := snapshot
	s.mu.Lock()
	s.results[id] = &entry
	s.mu.Unlock()

	// 落库与缓存使用本地快照，不触碰已发布到map的条目
	if err := s.persist(&snapshot); err != nil {
		// 持久化失败不影响内存登记，结果仍可从本进程读取
		slog.Error("分析记录落库失败", "id", id, "error", err)
	}
	s.cachePut(&snapshot)
	return id, nil
}

// SavePackage 为已登记结果附加洞察包
func (s *ResultStore) SavePackage(id string, pkg *models.InsightPackage) error {
	s.mu.Lock()
	stored, ok := s.results[id]
	var snapshot StoredResult
	if ok {
		stored.Package = pkg
		snapshot = *stored
	}
	s.mu.Unlock()
	if !ok {
		return ErrResultNotFound
	}

	if s.db != nil {
		packageJSON, err := models.ToJSONB(pkg)
		if err != nil {
			return err
		}
		if err := s.db.Model(&models.AnalysisRecord{}).
			Where("id = ?", id).
			Update("insight_package", packageJSON).Error; err != nil {
			slog.Error("洞察包落库失败", "id", id, "error", err)
		}
	}
	s.cachePut(&snapshot)
	return nil
}

// Get 按ID读取已登记结果的快照。返回值拷贝，释放锁后并发的
// SavePackage不会影响调用方已持有的快照。
func (s *ResultStore) Get(id string) (StoredResult, error) {
	s.mu.RLock()
	stored, ok := s.results[id]
	var snapshot StoredResult
	if ok {
		snapshot = *stored
	}
	s.mu.RUnlock()
	if !ok {
		return StoredResult{}, ErrResultNotFound
	}
	return snapshot, nil
}

// List 返回全部结果摘要，按创建时间倒序
func (s *ResultStore) List() []ResultSummary {
	s.mu.RLock()
	summaries := make([]ResultSummary, 0, len(s.results))
	for _, stored := range s.results {
		summaries = append(summaries, ResultSummary{
			ID:           stored.ID,
			Filename:     stored.Result.ProcessingMetadata.Filename,
			Domain:       stored.Result.Schema.Domain,
			TotalRecords: stored.Result.QualityReport.TotalRecords,
			OverallScore: stored.Result.QualityReport.OverallScore,
			HasPackage:   stored.Package != nil,
			CreatedAt:    stored.CreatedAt,
		})
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}

// Delete 删除指定结果
func (s *ResultStore) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.results[id]
	delete(s.results, id)
	s.mu.Unlock()
	if !ok {
		return ErrResultNotFound
	}

	if s.db != nil {
		if err := s.db.Delete(&models.AnalysisRecord{}, "id = ?", id).Error; err != nil {
			slog.Error("分析记录删除失败", "id", id, "error", err)
		}
	}
	s.cacheDelete(id)
	return nil
}

// DeleteOlderThan 删除早于截止时间的内存登记，返回删除数量。
// 缓存删除在释放锁之后执行，避免redis调用阻塞并发读写。
func (s *ResultStore) DeleteOlderThan(cutoff time.Time) int {
	s.mu.Lock()
	var expired []string
	for id, stored := range s.results {
		if stored.CreatedAt.Before(cutoff) {
			delete(s.results, id)
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.cacheDelete(id)
	}
	return len(expired)
}

// persist 将结果摘要与JSONB快照写入分析记录表
func (s *ResultStore) persist(stored *StoredResult) error {
	if s.db == nil {
		return nil
	}

	schemaJSON, err := models.ToJSONB(stored.Result.Schema)
	if err != nil {
		return err
	}
	reportJSON, err := models.ToJSONB(stored.Result.QualityReport)
	if err != nil {
		return err
	}
	insightsJSON, err := models.ToJSONB(stored.Result.Insights)
	if err != nil {
		return err
	}

	record := &models.AnalysisRecord{
		ID:            stored.ID,
		Filename:      stored.Result.ProcessingMetadata.Filename,
		Domain:        string(stored.Result.Schema.Domain),
		OriginalRows:  stored.Result.ProcessingMetadata.OriginalRows,
		ProcessedRows: stored.Result.ProcessingMetadata.ProcessedRows,
		OverallScore:  stored.Result.QualityReport.OverallScore,
		Schema:        schemaJSON,
		QualityReport: reportJSON,
		Insights:      insightsJSON,
	}
	return s.db.Create(record).Error
}

func (s *ResultStore) cachePut(stored *StoredResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(stored); err != nil {
		slog.Debug("结果缓存写入失败", "id", stored.ID, "error", err)
	}
}

func (s *ResultStore) cacheDelete(id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(id); err != nil {
		slog.Debug("结果缓存删除失败", "id", id, "error", err)
	}
}
