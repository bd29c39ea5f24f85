/*
 * @module service/models/insight_models
 * @description 多受众洞察包模型，面向管理层、技术人员、临床人员和运营人员的分层视图
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow ProcessingResult -> 洞察包组装 -> 只读输出
 * @rules 洞察包对每个处理结果只构建一次，构建后只读
 * @dependencies 无
 * @refs service/insight
 */

package models

import "time"

// ExecutiveSummary 管理层摘要
type ExecutiveSummary struct {
	KeyMetrics       map[string]interface{} `json:"key_metrics"`
	CriticalFindings []string               `json:"critical_findings"`
	BusinessImpact   string                 `json:"business_impact"`
	Recommendations  []string               `json:"recommendations"`
	ROIImplications  string                 `json:"roi_implications,omitempty"`
}

// TechnicalAnalysis 技术分析视图
type TechnicalAnalysis struct {
	Methodology         string                   `json:"methodology"`
	StatisticalTests    []map[string]interface{} `json:"statistical_tests"`
	ConfidenceIntervals map[string]interface{}   `json:"confidence_intervals"`
	Limitations         []string                 `json:"limitations"`
	DataQualityNotes    []string                 `json:"data_quality_notes"`
}

// RiskFactor 从强相关字段对推导的风险因子
type RiskFactor struct {
	Factor       string  `json:"factor"`
	Significance float64 `json:"significance"`
}

// ClinicalFindings 临床发现，仅临床域数据集填充
type ClinicalFindings struct {
	PatientOutcomes         map[string]int         `json:"patient_outcomes"`
	RiskFactors             []RiskFactor           `json:"risk_factors"`
	TreatmentEfficacy       map[string]interface{} `json:"treatment_efficacy"`
	EvidenceStrength        string                 `json:"evidence_strength"`
	ClinicalRecommendations []string               `json:"clinical_recommendations"`
}

// ActionItem 运营行动项
type ActionItem struct {
	Title    string `json:"title"`
	Priority string `json:"priority"`
}

// OperationalGuide 运营指南
type OperationalGuide struct {
	ActionItems          []ActionItem   `json:"action_items"`
	ImplementationSteps  []string       `json:"implementation_steps"`
	ResourceRequirements map[string]int `json:"resource_requirements"`
	Timeline             string         `json:"timeline"`
	SuccessMetrics       []string       `json:"success_metrics"`
}

// InsightPackage 综合洞察包
type InsightPackage struct {
	ExecutiveSummary  ExecutiveSummary  `json:"executive_summary"`
	ClinicalFindings  *ClinicalFindings `json:"clinical_findings,omitempty"`
	TechnicalAnalysis TechnicalAnalysis `json:"technical_analysis"`
	OperationalGuide  OperationalGuide  `json:"operational_guide"`
	GeneratedAt       time.Time         `json:"generated_at"`
	ConfidenceLevel   float64           `json:"confidence_level"`
}
