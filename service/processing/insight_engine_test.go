/*
 * @module service/processing/insight_engine_test
 * @description 洞察引擎单元测试
 * @architecture 测试层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 数据集构建 -> 剖析执行 -> 洞察验证
 * @rules 覆盖统计摘要、相关性、模式检测、建议与风险信号
 * @dependencies testing, stretchr/testify
 */

package processing

import (
	"fmt"
	"testing"

	"insight-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticalSummary(t *testing.T) {
	engine := NewInsightEngine(nil)
	ds := makeDataset([]string{"v", "w"},
		[]interface{}{"1", "x"},
		[]interface{}{"2", "y"},
		[]interface{}{"3", nil},
		[]interface{}{nil, "z"},
	)
	schema := &models.DataSchema{Domain: models.DomainGeneral}

	insights := engine.Profile(ds, schema)

	require.Contains(t, insights.StatisticalSummary, "v")
	summary := insights.StatisticalSummary["v"]
	assert.InDelta(t, 2.0, summary.Mean, 1e-9)
	assert.InDelta(t, 2.0, summary.Median, 1e-9)
	assert.InDelta(t, 1.0, summary.Std, 1e-9)
	assert.Equal(t, 1.0, summary.Min)
	assert.Equal(t, 3.0, summary.Max)
	assert.Equal(t, 1, summary.NullCount)

	// 非数值列不进入统计摘要
	assert.NotContains(t, insights.StatisticalSummary, "w")
}

func TestCategoricalSummaryTopValues(t *testing.T) {
	engine := NewInsightEngine(nil)
	ds := models.NewDataset([]string{"color"})
	// blue×3, red×2, green×2, yellow×1, purple×1, orange×1
	for _, v := range []string{"blue", "red", "green", "blue", "red", "blue", "green", "yellow", "purple", "orange"} {
		ds.Rows = append(ds.Rows, models.Row{"color": v})
	}
	schema := &models.DataSchema{Domain: models.DomainGeneral}

	insights := engine.Profile(ds, schema)

	require.Contains(t, insights.CategoricalSummary, "color")
	summary := insights.CategoricalSummary["color"]
	assert.Equal(t, 6, summary.UniqueCount)
	require.Len(t, summary.MostCommon, 5)

	// 计数降序，并列保持首次出现顺序
	assert.Equal(t, models.ValueCount{Value: "blue", Count: 3}, summary.MostCommon[0])
	assert.Equal(t, models.ValueCount{Value: "red", Count: 2}, summary.MostCommon[1])
	assert.Equal(t, models.ValueCount{Value: "green", Count: 2}, summary.MostCommon[2])
	assert.Equal(t, models.ValueCount{Value: "yellow", Count: 1}, summary.MostCommon[3])
	assert.Equal(t, models.ValueCount{Value: "purple", Count: 1}, summary.MostCommon[4])
}

func TestCorrelations(t *testing.T) {
	engine := NewInsightEngine(nil)
	ds := makeDataset([]string{"x", "y", "z"},
		[]interface{}{"1", "2", "1"},
		[]interface{}{"2", "4", "3"},
		[]interface{}{"3", "6", "2"},
	)
	schema := &models.DataSchema{Domain: models.DomainGeneral}

	insights := engine.Profile(ds, schema)
	corr := insights.Correlations

	// y=2x 完全相关，进入强相关列表
	require.NotEmpty(t, corr.Strong)
	found := false
	for _, sc := range corr.Strong {
		if sc.Field1 == "x" && sc.Field2 == "y" {
			found = true
			assert.InDelta(t, 1.0, sc.Correlation, 1e-9)
		}
	}
	assert.True(t, found, "x~y 应被识别为强相关")

	// r=0.5 不应进入强相关列表
	for _, sc := range corr.Strong {
		assert.False(t, sc.Field1 == "x" && sc.Field2 == "z")
	}
	assert.InDelta(t, 0.5, corr.Matrix["x"]["z"], 1e-9)
	assert.Equal(t, 1.0, corr.Matrix["x"]["x"])
	// 矩阵对称
	assert.Equal(t, corr.Matrix["x"]["y"], corr.Matrix["y"]["x"])
}

func TestCorrelationsSingleColumn(t *testing.T) {
	engine := NewInsightEngine(nil)
	ds := makeDataset([]string{"x"}, []interface{}{"1"}, []interface{}{"2"})
	schema := &models.DataSchema{Domain: models.DomainGeneral}

	insights := engine.Profile(ds, schema)
	assert.Empty(t, insights.Correlations.Matrix)
	assert.Empty(t, insights.Correlations.Strong)
}

func TestDetectPatterns(t *testing.T) {
	engine := NewInsightEngine(nil)
	ds := makeDataset([]string{"a", "b", "c"},
		[]interface{}{"1", "2", "3"},
		[]interface{}{"1", "2", "3"},
		[]interface{}{nil, nil, "3"},
	)
	schema := &models.DataSchema{Domain: models.DomainGeneral}

	insights := engine.Profile(ds, schema)

	types := make(map[string]models.Pattern)
	for _, p := range insights.Patterns {
		types[p.Type] = p
	}

	require.Contains(t, types, "duplicate_rows")
	assert.Equal(t, "info", types["duplicate_rows"].Severity)
	assert.Contains(t, types["duplicate_rows"].Description, "1")

	require.Contains(t, types, "high_missing_rows")
	assert.Equal(t, "warning", types["high_missing_rows"].Severity)
}

func TestGenerateRecommendations(t *testing.T) {
	engine := NewInsightEngine(nil)

	ds := models.NewDataset([]string{"sparse", "cat"})
	for i := 0; i < 10; i++ {
		row := models.Row{"sparse": nil, "cat": fmt.Sprintf("value_%d", i)}
		if i < 4 {
			row["sparse"] = "x"
		}
		ds.Rows = append(ds.Rows, row)
	}
	schema := &models.DataSchema{
		Domain: models.DomainGeneral,
		Fields: []models.FieldSchema{
			{Name: "sparse", FieldType: models.FieldTypeText},
			{Name: "cat", FieldType: models.FieldTypeCategorical},
		},
	}

	insights := engine.Profile(ds, schema)

	// 缺失率60%触发采集改进建议，高基数分类字段触发标准化建议
	require.Len(t, insights.Recommendations, 2)
	assert.Contains(t, insights.Recommendations[0], "sparse")
	assert.Contains(t, insights.Recommendations[1], "cat")
}

func TestRiskIndicators(t *testing.T) {
	engine := NewInsightEngine(nil)

	// 20个完整数值行、两个非常量列，满足两项高级分析的前提
	ds := models.NewDataset([]string{"x", "y"})
	for i := 0; i < 10; i++ {
		ds.Rows = append(ds.Rows, models.Row{"x": fmt.Sprintf("%d", i), "y": fmt.Sprintf("%d", i*2)})
	}
	for i := 0; i < 10; i++ {
		ds.Rows = append(ds.Rows, models.Row{"x": fmt.Sprintf("%d", 100+i), "y": fmt.Sprintf("%d", 200+i)})
	}
	schema := &models.DataSchema{Domain: models.DomainGeneral}

	insights := engine.Profile(ds, schema)

	types := make(map[string]models.RiskIndicator)
	for _, ri := range insights.RiskIndicators {
		types[ri.Type] = ri
	}

	require.Contains(t, types, "outlier_detection")
	outlier := types["outlier_detection"]
	assert.Equal(t, "IsolationForest", outlier.Method)
	require.NotNil(t, outlier.OutlierRate)
	assert.GreaterOrEqual(t, *outlier.OutlierRate, 0.0)
	assert.LessOrEqual(t, *outlier.OutlierRate, 1.0)

	require.Contains(t, types, "clustering")
	clustering := types["clustering"]
	assert.Equal(t, "KMeans", clustering.Method)
	total := 0
	for _, size := range clustering.Clusters {
		total += size
	}
	assert.Equal(t, 20, total, "聚类大小之和应等于完整数值行数")
}

func TestRiskIndicatorsSkippedOnSmallData(t *testing.T) {
	engine := NewInsightEngine(nil)
	ds := makeDataset([]string{"x", "y"},
		[]interface{}{"1", "2"},
		[]interface{}{"3", "4"},
	)
	schema := &models.DataSchema{Domain: models.DomainGeneral}

	insights := engine.Profile(ds, schema)
	assert.Empty(t, insights.RiskIndicators, "数据量不足时不产生风险信号")
}

func TestProfileDeterministic(t *testing.T) {
	engine := NewInsightEngine(nil)
	ds := makeClinicalDataset(100)
	schema := &models.DataSchema{Domain: models.DomainClinical}

	first := engine.Profile(ds, schema)
	second := engine.Profile(ds, schema)

	assert.Equal(t, first.StatisticalSummary, second.StatisticalSummary)
	assert.Equal(t, first.CategoricalSummary, second.CategoricalSummary)
	assert.Equal(t, first.RiskIndicators, second.RiskIndicators, "固定随机种子应保证风险信号可复现")
}
