/*
 * @module service/models/processing_models_test
 * @description 处理模型与质量分数计算单元测试
 * @architecture 测试层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 报告构建 -> 分数收敛 -> 结果验证
 * @rules 所有分数必须收敛到[0,1]区间
 * @dependencies testing, stretchr/testify
 */

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataDomain(t *testing.T) {
	for _, d := range AllDomains {
		parsed, err := ParseDataDomain(string(d))
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}

	_, err := ParseDataDomain("astrology")
	assert.Error(t, err)
	_, err = ParseDataDomain("")
	assert.Error(t, err)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 1.0, Clamp01(1.5))
	assert.Equal(t, 0.42, Clamp01(0.42))
}

func TestWeightedOverallScore(t *testing.T) {
	// 0.3*完整性 + 0.3*一致性 + 0.4*有效性
	assert.InDelta(t, 1.0, WeightedOverallScore(1, 1, 1), 1e-9)
	assert.InDelta(t, 0.4, WeightedOverallScore(0, 0, 1), 1e-9)
	assert.InDelta(t, 0.65, WeightedOverallScore(0.5, 0.5, 0.8), 1e-9)
}

func TestQualityReportFinalize(t *testing.T) {
	report := &QualityReport{
		CompletenessScore: 0.9,
		ConsistencyScore:  0.8,
		ValidityScore:     -0.5, // 错误数超过字段数时会为负
		OutlierPercentage: 1.2,
	}
	report.Finalize()

	assert.Equal(t, 0.0, report.ValidityScore)
	assert.Equal(t, 1.0, report.OutlierPercentage)
	assert.InDelta(t, 0.51, report.OverallScore, 1e-9)
}

func TestQualityReportFinalizePreservesOverall(t *testing.T) {
	report := &QualityReport{
		CompletenessScore: 1,
		ConsistencyScore:  1,
		ValidityScore:     1,
		OverallScore:      0.42,
	}
	report.Finalize()

	// 已计算的总分不被覆盖
	assert.Equal(t, 0.42, report.OverallScore)
}

func TestFieldByName(t *testing.T) {
	schema := &DataSchema{Fields: []FieldSchema{
		{Name: "a", FieldType: FieldTypeText},
		{Name: "b", FieldType: FieldTypeNumeric},
	}}

	require.NotNil(t, schema.FieldByName("b"))
	assert.Equal(t, FieldTypeNumeric, schema.FieldByName("b").FieldType)
	assert.Nil(t, schema.FieldByName("ghost"))
}
