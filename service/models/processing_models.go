/*
 * @module service/models/processing_models
 * @description CSV处理管线的数据契约，包含数据域、字段类型、模式、校验错误、质量报告、洞察结果等核心模型
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 模式检测 -> 数据校验 -> 统计剖析 -> 处理结果组装
 * @rules 所有模型每次分析调用时新建，分析之间不共享可变状态
 * @dependencies 无
 * @refs service/processing, service/insight
 */

package models

import (
	"fmt"
	"time"
)

// DataDomain 数据集所属业务域
type DataDomain string

const (
	DomainClinical  DataDomain = "clinical"
	DomainLogistics DataDomain = "logistics"
	DomainInsurance DataDomain = "insurance"
	DomainGeneral   DataDomain = "general"
)

// AllDomains 规范枚举顺序，域检测的平局判定依赖该顺序
var AllDomains = []DataDomain{DomainClinical, DomainLogistics, DomainInsurance, DomainGeneral}

// ParseDataDomain 解析域字符串，未知值返回错误
func ParseDataDomain(s string) (DataDomain, error) {
	for _, d := range AllDomains {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("未知的数据域: %s", s)
}

// FieldType 字段语义类型
type FieldType string

const (
	FieldTypeNumeric     FieldType = "numeric"
	FieldTypeCategorical FieldType = "categorical"
	FieldTypeDate        FieldType = "date"
	FieldTypeText        FieldType = "text"
	FieldTypeMedicalCode FieldType = "medical_code"
	FieldTypeIdentifier  FieldType = "identifier"
)

// AllFieldTypes 支持的字段类型列表
var AllFieldTypes = []FieldType{
	FieldTypeNumeric,
	FieldTypeCategorical,
	FieldTypeDate,
	FieldTypeText,
	FieldTypeMedicalCode,
	FieldTypeIdentifier,
}

// ValidationError 数据校验错误
type ValidationError struct {
	Field      string `json:"field"`
	ErrorType  string `json:"error_type"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	RowIndices []int  `json:"row_indices,omitempty"`
}

// FieldConstraints 字段约束，数值字段为观测区间，分类字段为取值集合
type FieldConstraints struct {
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	AllowedValues []string `json:"allowed_values,omitempty"`
}

// FieldSchema 单个字段的模式定义
type FieldSchema struct {
	Name        string           `json:"name"`
	FieldType   FieldType        `json:"field_type"`
	IsRequired  bool             `json:"is_required"`
	Constraints FieldConstraints `json:"constraints"`
}

// DataSchema 数据集完整模式
type DataSchema struct {
	Domain          DataDomain    `json:"domain"`
	Fields          []FieldSchema `json:"fields"`
	TotalFields     int           `json:"total_fields"`
	DetectedAt      time.Time     `json:"detection_timestamp"`
	ConfidenceScore float64       `json:"confidence_score"`
}

// FieldByName 按名称查找字段模式
func (s *DataSchema) FieldByName(name string) *FieldSchema {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// QualityReport 数据质量评估报告，各分项分数均为 [0,1] 区间内的比例
type QualityReport struct {
	CompletenessScore float64 `json:"completeness_score"`
	ConsistencyScore  float64 `json:"consistency_score"`
	ValidityScore     float64 `json:"validity_score"`
	OutlierPercentage float64 `json:"outlier_percentage"`
	OverallScore      float64 `json:"overall_score"`

	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings"`

	TotalRecords int `json:"total_records"`
	ValidRecords int `json:"valid_records"`
}

// 总分权重：完整性 0.3 + 一致性 0.3 + 有效性 0.4
const (
	weightCompleteness = 0.3
	weightConsistency  = 0.3
	weightValidity     = 0.4
)

// Finalize 裁剪分项分数到 [0,1] 并计算加权总分。
// 有效性分数在错误数超过字段数时会为负，必须显式裁剪。
func (r *QualityReport) Finalize() {
	r.CompletenessScore = Clamp01(r.CompletenessScore)
	r.ConsistencyScore = Clamp01(r.ConsistencyScore)
	r.ValidityScore = Clamp01(r.ValidityScore)
	r.OutlierPercentage = Clamp01(r.OutlierPercentage)
	if r.OverallScore == 0 {
		r.OverallScore = WeightedOverallScore(r.CompletenessScore, r.ConsistencyScore, r.ValidityScore)
	}
}

// WeightedOverallScore 按固定权重计算总分
func WeightedOverallScore(completeness, consistency, validity float64) float64 {
	return completeness*weightCompleteness + consistency*weightConsistency + validity*weightValidity
}

// Clamp01 裁剪到 [0,1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NumericSummary 数值字段统计摘要
type NumericSummary struct {
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	Std       float64 `json:"std"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	NullCount int     `json:"null_count"`
}

// ValueCount 取值计数对，保持首次出现顺序以保证确定性
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalSummary 分类/文本字段摘要
type CategoricalSummary struct {
	UniqueCount int          `json:"unique_count"`
	MostCommon  []ValueCount `json:"most_common"`
	NullCount   int          `json:"null_count"`
}

// StrongCorrelation |r| > 0.7 的字段对
type StrongCorrelation struct {
	Field1      string  `json:"field1"`
	Field2      string  `json:"field2"`
	Correlation float64 `json:"correlation"`
}

// CorrelationReport 数值字段两两Pearson相关
type CorrelationReport struct {
	Matrix map[string]map[string]float64 `json:"matrix,omitempty"`
	Strong []StrongCorrelation           `json:"strong_correlations,omitempty"`
}

// Pattern 启发式模式检测结果
type Pattern struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// RiskIndicator 可选高级分析产生的风险信号，任一子步骤失败时静默省略
type RiskIndicator struct {
	Type        string         `json:"type"`
	Method      string         `json:"method"`
	OutlierRate *float64       `json:"outlier_rate,omitempty"`
	Clusters    map[string]int `json:"clusters,omitempty"`
	Note        string         `json:"note"`
}

// DomainInsights 数据剖析洞察
type DomainInsights struct {
	Domain             DataDomain                    `json:"domain"`
	StatisticalSummary map[string]NumericSummary     `json:"statistical_summary"`
	CategoricalSummary map[string]CategoricalSummary `json:"categorical_summary"`
	Correlations       CorrelationReport             `json:"correlations"`
	Patterns           []Pattern                     `json:"patterns"`
	Recommendations    []string                      `json:"recommendations"`
	RiskIndicators     []RiskIndicator               `json:"risk_indicators"`
}

// ProcessingMetadata 处理过程元数据
type ProcessingMetadata struct {
	OriginalRows   int        `json:"original_rows"`
	ProcessedRows  int        `json:"processed_rows"`
	ProcessingTime time.Time  `json:"processing_time"`
	Domain         DataDomain `json:"domain"`
	Filename       string     `json:"filename,omitempty"`
	FileSizeMB     float64    `json:"file_size_mb,omitempty"`
}

// ProcessingResult CSV分析的顶层输出。
// Data 为清洗后的表格数据，体积大且可变，不参与序列化，由结果独占直至交给下游消费方。
type ProcessingResult struct {
	Schema             DataSchema         `json:"schema"`
	QualityReport      QualityReport      `json:"quality_report"`
	Insights           DomainInsights     `json:"insights"`
	ProcessingMetadata ProcessingMetadata `json:"processing_metadata"`

	Data *Dataset `json:"-"`
}
