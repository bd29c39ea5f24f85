/*
 * @module service/insight/insight_generator
 * @description 洞察生成器：从处理结果组装面向管理层/技术/临床/运营的多受众洞察包
 * @architecture 分层架构 - 洞察服务层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 质量报告读取 -> 各受众视图组装 -> 置信度计算 -> 洞察包输出
 * @rules 临床发现仅在临床域且数据非空时填充；洞察包构建后只读
 * @dependencies insight-service/service/models
 * @refs service/processing/processor.go
 */

package insight

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"insight-service/service/models"
)

// maxFindings 管理层摘要的关键发现与建议数量上限
const maxFindings = 8

// maxRiskFactors 临床风险因子数量上限
const maxRiskFactors = 5

// maxActionItems 从建议转换的行动项数量上限
const maxActionItems = 5

// riskIndicatorPenalty 存在风险信号时的置信度扣减
const riskIndicatorPenalty = 0.05

// 质量受限判定阈值
const (
	lowCompletenessThreshold = 0.8
	lowConsistencyThreshold  = 0.8
	highOutlierThreshold     = 0.1
)

// InsightGenerator 多受众洞察包生成器
type InsightGenerator struct{}

// NewInsightGenerator 创建洞察生成器实例
func NewInsightGenerator() *InsightGenerator {
	return &InsightGenerator{}
}

// Generate 从处理结果构建综合洞察包
func (g *InsightGenerator) Generate(result *models.ProcessingResult) (*models.InsightPackage, error) {
	if result == nil {
		return nil, errors.New("处理结果为空")
	}

	q := result.QualityReport
	di := result.Insights

	pkg := &models.InsightPackage{
		ExecutiveSummary:  g.executiveSummary(result),
		TechnicalAnalysis: g.technicalAnalysis(q),
		ClinicalFindings:  g.clinicalFindings(result),
		OperationalGuide:  g.operationalGuide(di),
		GeneratedAt:       time.Now().UTC(),
		ConfidenceLevel:   g.confidenceLevel(q, di),
	}
	return pkg, nil
}

// executiveSummary 管理层摘要：关键指标快照、关键发现与建议
func (g *InsightGenerator) executiveSummary(result *models.ProcessingResult) models.ExecutiveSummary {
	q := result.QualityReport
	di := result.Insights

	keyMetrics := map[string]interface{}{
		"domain":               string(result.Schema.Domain),
		"records_total":        result.Data.NumRows(),
		"valid_records":        q.ValidRecords,
		"data_quality_overall": q.OverallScore,
		"completeness":         q.CompletenessScore,
		"consistency":          q.ConsistencyScore,
		"validity":             q.ValidityScore,
		"outlier_pct":          q.OutlierPercentage,
	}

	findings := make([]string, 0)
	for _, p := range di.Patterns {
		if p.Description != "" {
			findings = append(findings, p.Description)
		} else if p.Type != "" {
			findings = append(findings, p.Type)
		}
	}
	for _, r := range di.RiskIndicators {
		note := r.Note
		if note == "" {
			note = r.Type
		}
		findings = append(findings, fmt.Sprintf("%s: %s", r.Type, note))
	}
	if len(findings) == 0 {
		findings = []string{"数据集分析完成，未发现关键异常。"}
	}
	if len(findings) > maxFindings {
		findings = findings[:maxFindings]
	}

	recommendations := di.Recommendations
	if len(recommendations) > maxFindings {
		recommendations = recommendations[:maxFindings]
	}
	if recommendations == nil {
		recommendations = []string{}
	}

	return models.ExecutiveSummary{
		KeyMetrics:       keyMetrics,
		CriticalFindings: findings,
		BusinessImpact:   "通过标准化分析与质量评估提升决策支持能力。",
		Recommendations:  recommendations,
	}
}

// technicalAnalysis 技术分析：固定方法学描述与条件化局限性说明
func (g *InsightGenerator) technicalAnalysis(q models.QualityReport) models.TechnicalAnalysis {
	limitations := make([]string, 0)
	if q.CompletenessScore < lowCompletenessThreshold {
		limitations = append(limitations, "完整性偏低可能限制结论的普适性。")
	}
	if q.ConsistencyScore < lowConsistencyThreshold {
		limitations = append(limitations, "部分字段检测到不一致的文本格式。")
	}
	if q.OutlierPercentage > highOutlierThreshold {
		limitations = append(limitations, "离群率偏高，建议加强数据校验或采用稳健模型。")
	}

	notes := make([]string, 0)
	if len(q.Errors) > 0 {
		notes = append(notes, fmt.Sprintf("检测到错误: %d", len(q.Errors)))
	}
	if len(q.Warnings) > 0 {
		notes = append(notes, fmt.Sprintf("检测到警告: %d", len(q.Warnings)))
	}

	return models.TechnicalAnalysis{
		Methodology: "自动化描述统计、相关性分析、模式检测，" +
			"以及在适用时的异常检测（IsolationForest）与聚类（KMeans）。",
		StatisticalTests:    []map[string]interface{}{},
		ConfidenceIntervals: map[string]interface{}{},
		Limitations:         limitations,
		DataQualityNotes:    notes,
	}
}

// clinicalFindings 临床发现，仅临床域且数据非空时填充
func (g *InsightGenerator) clinicalFindings(result *models.ProcessingResult) *models.ClinicalFindings {
	if result.Schema.Domain != models.DomainClinical {
		return nil
	}
	ds := result.Data
	if ds == nil || ds.IsEmpty() {
		return nil
	}

	outcomes := make(map[string]int)
	for _, col := range ds.Columns {
		lower := strings.ToLower(col)
		if lower != "outcome" && lower != "outcomes" {
			continue
		}
		for _, v := range ds.NonNullStrings(col) {
			outcomes[v]++
		}
		break
	}

	riskFactors := make([]models.RiskFactor, 0, maxRiskFactors)
	for _, sc := range result.Insights.Correlations.Strong {
		if len(riskFactors) == maxRiskFactors {
			break
		}
		riskFactors = append(riskFactors, models.RiskFactor{
			Factor:       fmt.Sprintf("%s~%s", sc.Field1, sc.Field2),
			Significance: math.Abs(sc.Correlation),
		})
	}

	recommendations := make([]string, 0, 2)
	if len(outcomes) > 0 {
		recommendations = append(recommendations, "建议复查结局较差类别的诊疗路径。")
	}
	if len(riskFactors) > 0 {
		recommendations = append(recommendations, "建议对已识别的相关因素进行分层分析。")
	}

	return &models.ClinicalFindings{
		PatientOutcomes:         outcomes,
		RiskFactors:             riskFactors,
		TreatmentEfficacy:       map[string]interface{}{},
		EvidenceStrength:        "moderate",
		ClinicalRecommendations: recommendations,
	}
}

// operationalGuide 运营指南：行动项来自前5条建议，否则给出两条通用默认项
func (g *InsightGenerator) operationalGuide(di models.DomainInsights) models.OperationalGuide {
	actionItems := make([]models.ActionItem, 0, maxActionItems)
	for _, rec := range di.Recommendations {
		if len(actionItems) == maxActionItems {
			break
		}
		actionItems = append(actionItems, models.ActionItem{Title: rec, Priority: "medium"})
	}
	if len(actionItems) == 0 {
		actionItems = []models.ActionItem{
			{Title: "标准化关键字段的数据采集流程", Priority: "high"},
			{Title: "建立常态化质量监控机制", Priority: "medium"},
		}
	}

	return models.OperationalGuide{
		ActionItems: actionItems,
		ImplementationSteps: []string{
			"确认源数据模式与字段语义",
			"清洗缺失与不一致取值",
			"与领域专家复核洞察结论",
			"向目标受众发布交付物",
		},
		ResourceRequirements: map[string]int{
			"analyst_hours":  4,
			"reviewer_hours": 2,
		},
		Timeline: "1-2周",
		SuccessMetrics: []string{
			"干系人满意度",
			"数据问题随时间减少",
			"建议措施的采纳率",
		},
	}
}

// confidenceLevel 置信度：以总分为基准（未计算时按权重公式重算），
// 存在风险信号时扣减后裁剪到 [0,1]
func (g *InsightGenerator) confidenceLevel(q models.QualityReport, di models.DomainInsights) float64 {
	base := q.OverallScore
	if base == 0 {
		base = models.WeightedOverallScore(q.CompletenessScore, q.ConsistencyScore, q.ValidityScore)
	}
	if len(di.RiskIndicators) > 0 {
		base -= riskIndicatorPenalty
	}
	return models.Clamp01(base)
}
