/*
 * @module service/processing/schema_detector
 * @description 模式检测器：基于列名与取值模式的业务域识别、字段语义类型推断与数据集模式生成
 * @architecture 分层架构 - 处理服务层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 列名归一化 -> 域评分 -> 字段类型推断 -> 约束计算 -> 模式输出
 * @rules 域模式表按规范顺序迭代以保证平局判定确定性；良构输入下检测永不报错
 * @dependencies insight-service/service/models
 * @refs service/processing/validator.go
 */

package processing

import (
	"strings"
	"time"

	"insight-service/service/models"
)

// domainSampleRows 域取值评分检查的行数上限
const domainSampleRows = 100

// requiredNullThreshold 空值率低于该阈值的字段视为必填
const requiredNullThreshold = 0.1

// categoricalUniqueRatio 非空取值唯一比低于该阈值判定为分类字段
const categoricalUniqueRatio = 0.1

type domainPattern struct {
	domain  models.DataDomain
	headers []string
	values  []string
}

// SchemaDetector 模式检测器
type SchemaDetector struct {
	config   *ProcessingConfig
	patterns []domainPattern
}

// NewSchemaDetector 创建模式检测器实例
func NewSchemaDetector(config *ProcessingConfig) *SchemaDetector {
	if config == nil {
		config = DefaultConfig()
	}
	return &SchemaDetector{
		config:   config,
		patterns: loadDomainPatterns(),
	}
}

// loadDomainPatterns 各业务域的列名关键词与取值模式，切片顺序即平局判定顺序
func loadDomainPatterns() []domainPattern {
	return []domainPattern{
		{
			domain: models.DomainClinical,
			headers: []string{
				"patient_id", "patient", "surgery", "procedure", "operation",
				"diagnosis", "complication", "outcome", "mortality", "morbidity",
				"stage", "histology", "tumor", "cancer", "treatment", "therapy",
				"hospital", "surgeon", "age", "gender", "bmi", "asa", "operative_time",
			},
			values: []string{
				"ia", "ib", "ii", "iii", "iv",
				"t1", "t2", "t3", "t4", "n0", "n1", "m0", "m1",
			},
		},
		{
			domain: models.DomainLogistics,
			headers: []string{
				"resource", "allocation", "capacity", "utilization", "workflow",
				"efficiency", "throughput", "bottleneck", "delay", "schedule",
				"inventory", "supply", "demand", "cost", "budget", "roi",
			},
			values: []string{
				"available", "allocated", "in_use", "maintenance", "scheduled",
			},
		},
		{
			domain: models.DomainInsurance,
			headers: []string{
				"claim", "policy", "premium", "coverage", "deductible", "copay",
				"risk", "fraud", "underwriting", "actuarial", "loss_ratio",
				"member", "provider", "network", "authorization", "denial",
			},
			values: []string{
				"approved", "denied", "pending", "in_network", "out_network",
			},
		},
	}
}

// normalizeHeader 列名归一化：小写并将空白替换为下划线
func normalizeHeader(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// DetectDomain 基于列名与内容检测数据集所属业务域。
// 每个匹配域关键词的列记 2 分，文本列前 100 行中每个匹配取值模式的单元格记 1 分；
// 全部为 0 分时返回通用域，平局取模式表中靠前的域。
func (d *SchemaDetector) DetectDomain(ds *models.Dataset) models.DataDomain {
	if ds == nil || ds.NumColumns() == 0 {
		return models.DomainGeneral
	}

	headers := make([]string, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		headers = append(headers, normalizeHeader(c))
	}

	sampleRows := ds.NumRows()
	if sampleRows > domainSampleRows {
		sampleRows = domainSampleRows
	}
	textCols := make([]string, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		if !isNumericColumn(ds, c) {
			textCols = append(textCols, c)
		}
	}

	bestDomain := models.DomainGeneral
	bestScore := 0
	for _, pattern := range d.patterns {
		score := 0
		for _, h := range headers {
			for _, kw := range pattern.headers {
				if strings.Contains(h, kw) {
					score += 2
					break
				}
			}
		}
		for _, c := range textCols {
			for i := 0; i < sampleRows; i++ {
				s, ok := ds.Rows[i][c].(string)
				if !ok {
					continue
				}
				lower := strings.ToLower(s)
				for _, vp := range pattern.values {
					if strings.Contains(lower, vp) {
						score++
						break
					}
				}
			}
		}
		if score > bestScore {
			bestScore = score
			bestDomain = pattern.domain
		}
	}

	if bestScore == 0 {
		return models.DomainGeneral
	}
	return bestDomain
}

// DetectFieldType 推断字段语义类型，按优先级首个命中为准：
// 标识符 -> 日期 -> 医学编码（仅临床域）-> 数值 -> 分类 -> 文本
func (d *SchemaDetector) DetectFieldType(ds *models.Dataset, name string, domain models.DataDomain) models.FieldType {
	fieldName := normalizeHeader(name)

	for _, term := range []string{"id", "uuid", "key"} {
		if strings.Contains(fieldName, term) {
			return models.FieldTypeIdentifier
		}
	}

	for _, term := range []string{"date", "time", "created", "updated"} {
		if strings.Contains(fieldName, term) {
			return models.FieldTypeDate
		}
	}

	if domain == models.DomainClinical {
		for _, term := range []string{"icd", "cpt", "stage", "histology"} {
			if strings.Contains(fieldName, term) {
				return models.FieldTypeMedicalCode
			}
		}
	}

	if !d.config.AutoDetectTypes {
		return models.FieldTypeText
	}

	nonNull := ds.NonNullStrings(name)
	if len(nonNull) == 0 {
		// 全空列默认为文本
		return models.FieldTypeText
	}

	if isNumericColumn(ds, name) {
		return models.FieldTypeNumeric
	}

	unique := make(map[string]struct{}, len(nonNull))
	for _, v := range nonNull {
		unique[v] = struct{}{}
	}
	if float64(len(unique))/float64(len(nonNull)) < categoricalUniqueRatio {
		return models.FieldTypeCategorical
	}

	return models.FieldTypeText
}

// GenerateSchema 为数据集生成完整模式，保持输入列序
func (d *SchemaDetector) GenerateSchema(ds *models.Dataset, domain models.DataDomain) *models.DataSchema {
	fields := make([]models.FieldSchema, 0, ds.NumColumns())
	typedFields := 0

	for _, col := range ds.Columns {
		fieldType := d.DetectFieldType(ds, col, domain)
		if fieldType != models.FieldTypeText {
			typedFields++
		}

		isRequired := false
		if ds.NumRows() > 0 {
			nullRatio := float64(ds.NullCount(col)) / float64(ds.NumRows())
			isRequired = nullRatio < requiredNullThreshold
		}

		constraints := models.FieldConstraints{}
		switch fieldType {
		case models.FieldTypeNumeric:
			if values := numericValues(ds, col); len(values) > 0 {
				lo, hi := minMax(values)
				constraints.Min = &lo
				constraints.Max = &hi
			}
		case models.FieldTypeCategorical:
			constraints.AllowedValues = distinctNonNull(ds, col)
		}

		fields = append(fields, models.FieldSchema{
			Name:        col,
			FieldType:   fieldType,
			IsRequired:  isRequired,
			Constraints: constraints,
		})
	}

	confidence := 0.0
	if len(fields) > 0 {
		confidence = float64(typedFields) / float64(len(fields))
	}

	return &models.DataSchema{
		Domain:          domain,
		Fields:          fields,
		TotalFields:     len(fields),
		DetectedAt:      time.Now().UTC(),
		ConfidenceScore: confidence,
	}
}

// distinctNonNull 指定列的非空去重取值，保持首次出现顺序
func distinctNonNull(ds *models.Dataset, column string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, row := range ds.Rows {
		s, ok := row[column].(string)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
