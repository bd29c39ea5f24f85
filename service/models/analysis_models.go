/*
 * @module service/models/analysis_models
 * @description 分析记录持久化模型，保存处理结果摘要与洞察包的 JSONB 快照
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 分析完成 -> 记录落库 -> 保留期后由清理任务删除
 * @dependencies gorm.io/gorm
 * @refs service/storage
 */

package models

import "time"

// AnalysisRecord CSV分析记录
type AnalysisRecord struct {
	ID             string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Filename       string  `json:"filename" gorm:"type:varchar(255)"`
	Domain         string  `json:"domain" gorm:"type:varchar(32);index"`
	OriginalRows   int     `json:"original_rows"`
	ProcessedRows  int     `json:"processed_rows"`
	OverallScore   float64 `json:"overall_score"`
	Schema         JSONB   `json:"schema" gorm:"type:jsonb"`
	QualityReport  JSONB   `json:"quality_report" gorm:"type:jsonb"`
	Insights       JSONB   `json:"insights" gorm:"type:jsonb"`
	InsightPackage JSONB   `json:"insight_package,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (AnalysisRecord) TableName() string {
	return "analysis_records"
}
