/*
 * @module service/processing/insight_engine
 * @description 洞察引擎：数值统计摘要、分类摘要、相关性分析、模式检测、改进建议与可选风险信号
 * @architecture 分层架构 - 处理服务层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 统计剖析 -> 相关性计算 -> 模式/建议生成 -> 风险信号（尽力而为）
 * @rules 可选分析子步骤通过可失败抽象执行，失败记日志并省略，不向上传播
 * @dependencies insight-service/service/models
 * @refs service/processing/processor.go
 */

package processing

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"insight-service/service/models"
)

// strongCorrelationThreshold 强相关判定阈值
const strongCorrelationThreshold = 0.7

// highNullRateThreshold 建议改进数据采集的空值率阈值
const highNullRateThreshold = 0.3

// highCardinalityRatio 建议标准化的分类字段唯一比阈值
const highCardinalityRatio = 0.5

// InsightEngine 数据剖析洞察引擎
type InsightEngine struct {
	config *ProcessingConfig
}

// NewInsightEngine 创建洞察引擎实例
func NewInsightEngine(config *ProcessingConfig) *InsightEngine {
	if config == nil {
		config = DefaultConfig()
	}
	return &InsightEngine{config: config}
}

// Profile 对清洗后的数据集进行统计剖析
func (e *InsightEngine) Profile(ds *models.Dataset, schema *models.DataSchema) *models.DomainInsights {
	numericCols := numericColumns(ds)

	insights := &models.DomainInsights{
		Domain:             schema.Domain,
		StatisticalSummary: e.statisticalSummary(ds, numericCols),
		CategoricalSummary: e.categoricalSummary(ds, numericCols),
		Correlations:       e.correlations(ds, numericCols),
		Patterns:           e.detectPatterns(ds),
		Recommendations:    e.generateRecommendations(ds, schema),
		RiskIndicators:     e.riskIndicators(ds, numericCols),
	}
	return insights
}

// statisticalSummary 数值列统计摘要，全空列被跳过以保证输出有限
func (e *InsightEngine) statisticalSummary(ds *models.Dataset, numericCols []string) map[string]models.NumericSummary {
	summary := make(map[string]models.NumericSummary, len(numericCols))
	for _, col := range numericCols {
		values := numericValues(ds, col)
		if len(values) == 0 {
			continue
		}
		lo, hi := minMax(values)
		summary[col] = models.NumericSummary{
			Mean:      mean(values),
			Median:    median(values),
			Std:       stddev(values),
			Min:       lo,
			Max:       hi,
			NullCount: ds.NullCount(col),
		}
	}
	return summary
}

// categoricalSummary 非数值列摘要：唯一值数、前5高频取值（并列按首次出现顺序）、空值数
func (e *InsightEngine) categoricalSummary(ds *models.Dataset, numericCols []string) map[string]models.CategoricalSummary {
	numeric := make(map[string]struct{}, len(numericCols))
	for _, c := range numericCols {
		numeric[c] = struct{}{}
	}

	summary := make(map[string]models.CategoricalSummary)
	for _, col := range ds.Columns {
		if _, isNumeric := numeric[col]; isNumeric {
			continue
		}
		counts := make(map[string]int)
		order := make([]string, 0)
		for _, row := range ds.Rows {
			s, ok := row[col].(string)
			if !ok {
				continue
			}
			if _, seen := counts[s]; !seen {
				order = append(order, s)
			}
			counts[s]++
		}
		// 按计数降序、并列保持首次出现顺序
		sort.SliceStable(order, func(i, j int) bool {
			return counts[order[i]] > counts[order[j]]
		})
		top := order
		if len(top) > 5 {
			top = top[:5]
		}
		mostCommon := make([]models.ValueCount, 0, len(top))
		for _, val := range top {
			mostCommon = append(mostCommon, models.ValueCount{Value: val, Count: counts[val]})
		}
		summary[col] = models.CategoricalSummary{
			UniqueCount: len(counts),
			MostCommon:  mostCommon,
			NullCount:   ds.NullCount(col),
		}
	}
	return summary
}

// correlations 数值列两两Pearson相关，少于两列返回空报告。
// 每对列基于双方均非空的行计算；方差为零的列对从矩阵中省略。
func (e *InsightEngine) correlations(ds *models.Dataset, numericCols []string) models.CorrelationReport {
	if len(numericCols) < 2 {
		return models.CorrelationReport{}
	}

	matrix := make(map[string]map[string]float64, len(numericCols))
	for _, c := range numericCols {
		matrix[c] = map[string]float64{c: 1}
	}
	var strong []models.StrongCorrelation

	for i := 0; i < len(numericCols); i++ {
		for j := i + 1; j < len(numericCols); j++ {
			col1, col2 := numericCols[i], numericCols[j]
			var xs, ys []float64
			for _, row := range ds.Rows {
				x, okX := parseNumeric(row[col1])
				y, okY := parseNumeric(row[col2])
				if okX && okY {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			r, ok := pearson(xs, ys)
			if !ok {
				continue
			}
			matrix[col1][col2] = r
			matrix[col2][col1] = r
			if math.Abs(r) > strongCorrelationThreshold {
				strong = append(strong, models.StrongCorrelation{
					Field1:      col1,
					Field2:      col2,
					Correlation: r,
				})
			}
		}
	}

	return models.CorrelationReport{Matrix: matrix, Strong: strong}
}

// detectPatterns 启发式模式检测：高缺失行与完全重复行
func (e *InsightEngine) detectPatterns(ds *models.Dataset) []models.Pattern {
	patterns := make([]models.Pattern, 0)
	if ds.IsEmpty() {
		return patterns
	}

	highMissing := 0
	for i := range ds.Rows {
		if float64(ds.RowNullCount(i)) > float64(ds.NumColumns())*0.5 {
			highMissing++
		}
	}
	if highMissing > 0 {
		patterns = append(patterns, models.Pattern{
			Type:        "high_missing_rows",
			Description: fmt.Sprintf("发现 %d 行缺失超过50%%的字段", highMissing),
			Severity:    "warning",
		})
	}

	seen := make(map[string]struct{}, ds.NumRows())
	duplicates := 0
	for i := range ds.Rows {
		key := ds.RowKey(i)
		if _, dup := seen[key]; dup {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
	}
	if duplicates > 0 {
		patterns = append(patterns, models.Pattern{
			Type:        "duplicate_rows",
			Description: fmt.Sprintf("发现 %d 行完全重复数据", duplicates),
			Severity:    "info",
		})
	}

	return patterns
}

// generateRecommendations 数据改进建议：高空值率字段与高基数分类字段
func (e *InsightEngine) generateRecommendations(ds *models.Dataset, schema *models.DataSchema) []string {
	recommendations := make([]string, 0)
	if ds.NumRows() == 0 {
		return recommendations
	}

	for _, field := range schema.Fields {
		if !ds.HasColumn(field.Name) {
			continue
		}
		nullRate := float64(ds.NullCount(field.Name)) / float64(ds.NumRows())
		if nullRate > highNullRateThreshold {
			recommendations = append(recommendations,
				fmt.Sprintf("建议改进字段 '%s' 的数据采集（缺失率超过30%%）", field.Name))
		}
	}

	for _, field := range schema.Fields {
		if field.FieldType != models.FieldTypeCategorical || !ds.HasColumn(field.Name) {
			continue
		}
		unique := len(distinctNonNull(ds, field.Name))
		if ds.NullCount(field.Name) > 0 {
			// 与唯一值计数口径一致：空值也算一种取值
			unique++
		}
		if float64(unique)/float64(ds.NumRows()) > highCardinalityRatio {
			recommendations = append(recommendations,
				fmt.Sprintf("字段 '%s' 取值种类过多，建议进行标准化", field.Name))
		}
	}

	return recommendations
}

// riskStep 可失败子步骤：返回可选结果与诊断错误，永不抛出
type riskStep func() (*models.RiskIndicator, error)

// runRiskStep 执行可失败子步骤，panic与错误均只记日志
func runRiskStep(name string, step riskStep) *models.RiskIndicator {
	var indicator *models.RiskIndicator
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("子步骤异常: %v", r)
			}
		}()
		indicator, err = step()
	}()
	if err != nil {
		slog.Debug("高级分析子步骤失败，结果中省略", "step", name, "error", err)
		return nil
	}
	return indicator
}

// riskIndicators 可选高级分析：离群检测与聚类，均为尽力而为
func (e *InsightEngine) riskIndicators(ds *models.Dataset, numericCols []string) []models.RiskIndicator {
	indicators := make([]models.RiskIndicator, 0, 2)

	completeData, usableCols := completeNumericMatrix(ds, numericCols)

	if len(numericCols) >= 1 && len(completeData) >= minAnalyticsRows && len(usableCols) >= 1 {
		if indicator := runRiskStep("outlier_detection", func() (*models.RiskIndicator, error) {
			rate, err := isolationOutlierRate(completeData)
			if err != nil {
				return nil, err
			}
			return &models.RiskIndicator{
				Type:        "outlier_detection",
				Method:      "IsolationForest",
				OutlierRate: &rate,
				Note:        "离群率偏高可能意味着数据质量问题或罕见病例",
			}, nil
		}); indicator != nil {
			indicators = append(indicators, *indicator)
		}
	}

	if len(numericCols) >= 2 && len(completeData) >= minAnalyticsRows && len(usableCols) >= 2 {
		if indicator := runRiskStep("clustering", func() (*models.RiskIndicator, error) {
			sizes, err := kmeansClusterSizes(completeData)
			if err != nil {
				return nil, err
			}
			return &models.RiskIndicator{
				Type:     "clustering",
				Method:   "KMeans",
				Clusters: sizes,
				Note:     "检测到明显聚类结构，建议考虑分层分析",
			}, nil
		}); indicator != nil {
			indicators = append(indicators, *indicator)
		}
	}

	return indicators
}

// completeNumericMatrix 提取所有数值列均非空的行，并剔除取值恒定的列
func completeNumericMatrix(ds *models.Dataset, numericCols []string) ([][]float64, []string) {
	if len(numericCols) == 0 {
		return nil, nil
	}

	var complete [][]float64
	for _, row := range ds.Rows {
		point := make([]float64, 0, len(numericCols))
		ok := true
		for _, col := range numericCols {
			f, valid := parseNumeric(row[col])
			if !valid {
				ok = false
				break
			}
			point = append(point, f)
		}
		if ok {
			complete = append(complete, point)
		}
	}
	if len(complete) == 0 {
		return nil, nil
	}

	// 剔除常量列
	usableIdx := make([]int, 0, len(numericCols))
	usableCols := make([]string, 0, len(numericCols))
	for j, col := range numericCols {
		constant := true
		for i := 1; i < len(complete); i++ {
			if complete[i][j] != complete[0][j] {
				constant = false
				break
			}
		}
		if !constant {
			usableIdx = append(usableIdx, j)
			usableCols = append(usableCols, col)
		}
	}
	if len(usableIdx) == len(numericCols) {
		return complete, usableCols
	}

	filtered := make([][]float64, len(complete))
	for i, point := range complete {
		np := make([]float64, 0, len(usableIdx))
		for _, j := range usableIdx {
			np = append(np, point[j])
		}
		filtered[i] = np
	}
	return filtered, usableCols
}
