/*
 * @module service/insight/insight_generator_test
 * @description 洞察生成器单元测试
 * @architecture 测试层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 处理结果构建 -> 洞察包生成 -> 各受众视图验证
 * @rules 覆盖临床发现触发条件、置信度计算与各视图截断规则
 * @dependencies testing, stretchr/testify
 */

package insight

import (
	"fmt"
	"testing"

	"insight-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clinicalResult 构建带结局列的临床处理结果
func clinicalResult() *models.ProcessingResult {
	ds := models.NewDataset([]string{"patient_id", "outcome"})
	outcomes := []string{"improved", "stable", "deceased"}
	counts := []int{60, 30, 10}
	idx := 0
	for o, c := range counts {
		for i := 0; i < c; i++ {
			ds.Rows = append(ds.Rows, models.Row{
				"patient_id": fmt.Sprintf("P%03d", idx),
				"outcome":    outcomes[o],
			})
			idx++
		}
	}

	return &models.ProcessingResult{
		Schema: models.DataSchema{Domain: models.DomainClinical},
		QualityReport: models.QualityReport{
			CompletenessScore: 0.95,
			ConsistencyScore:  0.9,
			ValidityScore:     1.0,
			OverallScore:      0.955,
			TotalRecords:      100,
			ValidRecords:      100,
		},
		Insights: models.DomainInsights{
			Domain: models.DomainClinical,
			Correlations: models.CorrelationReport{
				Strong: []models.StrongCorrelation{
					{Field1: "age", Field2: "mortality", Correlation: -0.82},
				},
			},
		},
		ProcessingMetadata: models.ProcessingMetadata{Domain: models.DomainClinical},
		Data:               ds,
	}
}

func TestGenerateNilResult(t *testing.T) {
	generator := NewInsightGenerator()
	_, err := generator.Generate(nil)
	assert.Error(t, err)
}

func TestGenerateClinicalFindings(t *testing.T) {
	generator := NewInsightGenerator()
	pkg, err := generator.Generate(clinicalResult())
	require.NoError(t, err)

	findings := pkg.ClinicalFindings
	require.NotNil(t, findings)

	// 结局直方图计数与数据一致
	assert.Equal(t, 60, findings.PatientOutcomes["improved"])
	assert.Equal(t, 30, findings.PatientOutcomes["stable"])
	assert.Equal(t, 10, findings.PatientOutcomes["deceased"])

	require.Len(t, findings.RiskFactors, 1)
	assert.Equal(t, "age~mortality", findings.RiskFactors[0].Factor)
	// 显著性取相关系数绝对值
	assert.InDelta(t, 0.82, findings.RiskFactors[0].Significance, 1e-9)

	assert.Equal(t, "moderate", findings.EvidenceStrength)
	// 有结局且有风险因子时给出两条建议
	assert.Len(t, findings.ClinicalRecommendations, 2)
}

func TestGenerateClinicalFindingsOnlyForClinicalDomain(t *testing.T) {
	generator := NewInsightGenerator()

	result := clinicalResult()
	result.Schema.Domain = models.DomainLogistics
	pkg, err := generator.Generate(result)
	require.NoError(t, err)
	assert.Nil(t, pkg.ClinicalFindings)

	// 临床域但数据为空同样不填充
	result = clinicalResult()
	result.Data = models.NewDataset([]string{"outcome"})
	pkg, err = generator.Generate(result)
	require.NoError(t, err)
	assert.Nil(t, pkg.ClinicalFindings)
}

func TestGenerateRiskFactorsCapped(t *testing.T) {
	generator := NewInsightGenerator()
	result := clinicalResult()
	result.Insights.Correlations.Strong = nil
	for i := 0; i < 9; i++ {
		result.Insights.Correlations.Strong = append(result.Insights.Correlations.Strong,
			models.StrongCorrelation{
				Field1:      fmt.Sprintf("f%d", i),
				Field2:      "target",
				Correlation: 0.75,
			})
	}

	pkg, err := generator.Generate(result)
	require.NoError(t, err)
	require.NotNil(t, pkg.ClinicalFindings)
	assert.Len(t, pkg.ClinicalFindings.RiskFactors, 5, "风险因子数量上限为5")
}

func TestGenerateExecutiveSummary(t *testing.T) {
	generator := NewInsightGenerator()
	pkg, err := generator.Generate(clinicalResult())
	require.NoError(t, err)

	summary := pkg.ExecutiveSummary
	assert.Equal(t, "clinical", summary.KeyMetrics["domain"])
	assert.Equal(t, 100, summary.KeyMetrics["records_total"])
	assert.Equal(t, 0.955, summary.KeyMetrics["data_quality_overall"])

	// 无模式与风险信号时给出占位发现
	require.Len(t, summary.CriticalFindings, 1)
	assert.NotEmpty(t, summary.CriticalFindings[0])
	assert.NotNil(t, summary.Recommendations)
}

func TestGenerateExecutiveFindingsCapped(t *testing.T) {
	generator := NewInsightGenerator()
	result := clinicalResult()
	for i := 0; i < 12; i++ {
		result.Insights.Patterns = append(result.Insights.Patterns, models.Pattern{
			Type:        "pattern",
			Description: fmt.Sprintf("发现 %d", i),
			Severity:    "info",
		})
	}

	pkg, err := generator.Generate(result)
	require.NoError(t, err)
	assert.Len(t, pkg.ExecutiveSummary.CriticalFindings, 8, "关键发现数量上限为8")
}

func TestGenerateTechnicalLimitations(t *testing.T) {
	generator := NewInsightGenerator()
	result := clinicalResult()
	result.QualityReport.CompletenessScore = 0.6
	result.QualityReport.ConsistencyScore = 0.7
	result.QualityReport.OutlierPercentage = 0.15

	pkg, err := generator.Generate(result)
	require.NoError(t, err)
	assert.Len(t, pkg.TechnicalAnalysis.Limitations, 3)
	assert.NotEmpty(t, pkg.TechnicalAnalysis.Methodology)

	// 高质量数据无局限性说明
	pkg, err = generator.Generate(clinicalResult())
	require.NoError(t, err)
	assert.Empty(t, pkg.TechnicalAnalysis.Limitations)
}

func TestGenerateOperationalGuide(t *testing.T) {
	generator := NewInsightGenerator()

	// 无建议时给出两条默认行动项
	pkg, err := generator.Generate(clinicalResult())
	require.NoError(t, err)
	guide := pkg.OperationalGuide
	require.Len(t, guide.ActionItems, 2)
	assert.Equal(t, "high", guide.ActionItems[0].Priority)
	assert.NotEmpty(t, guide.ImplementationSteps)
	assert.NotEmpty(t, guide.Timeline)

	// 建议超过5条时截断为前5条中优先级行动项
	result := clinicalResult()
	for i := 0; i < 7; i++ {
		result.Insights.Recommendations = append(result.Insights.Recommendations, fmt.Sprintf("建议 %d", i))
	}
	pkg, err = generator.Generate(result)
	require.NoError(t, err)
	require.Len(t, pkg.OperationalGuide.ActionItems, 5)
	for _, item := range pkg.OperationalGuide.ActionItems {
		assert.Equal(t, "medium", item.Priority)
	}
}

func TestConfidenceLevel(t *testing.T) {
	generator := NewInsightGenerator()

	// 无风险信号时置信度等于总分
	pkg, err := generator.Generate(clinicalResult())
	require.NoError(t, err)
	assert.InDelta(t, 0.955, pkg.ConfidenceLevel, 1e-9)

	// 存在风险信号时扣减0.05
	result := clinicalResult()
	rate := 0.2
	result.Insights.RiskIndicators = []models.RiskIndicator{
		{Type: "outlier_detection", Method: "IsolationForest", OutlierRate: &rate},
	}
	pkg, err = generator.Generate(result)
	require.NoError(t, err)
	assert.InDelta(t, 0.905, pkg.ConfidenceLevel, 1e-9)
}

func TestConfidenceLevelRecomputed(t *testing.T) {
	generator := NewInsightGenerator()
	result := clinicalResult()
	result.QualityReport.OverallScore = 0

	pkg, err := generator.Generate(result)
	require.NoError(t, err)
	expected := models.WeightedOverallScore(0.95, 0.9, 1.0)
	assert.InDelta(t, expected, pkg.ConfidenceLevel, 1e-9)
}
