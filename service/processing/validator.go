/*
 * @module service/processing/validator
 * @description 数据校验器：按模式校验数据集，产出清洗副本与质量报告（完整性/一致性/有效性/离群率）
 * @architecture 分层架构 - 数据校验层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 字段遍历 -> 逐项检查 -> 质量分数计算 -> 报告组装
 * @rules 校验发现是数据结论而非异常，不因数据不完美而中止；原始数据集不被修改
 * @dependencies insight-service/service/models, golang.org/x/text
 * @refs service/processing/schema_detector.go
 */

package processing

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"insight-service/service/models"
)

// iqrMultiplier IQR离群判定倍数
const iqrMultiplier = 1.5

// minIQRValues IQR计算所需的最少非空值数
const minIQRValues = 4

// casingMixThreshold 大小写风格占比超过该阈值视为显著存在
const casingMixThreshold = 0.1

// DataValidator 数据校验器
type DataValidator struct {
	config     *ProcessingConfig
	titleCaser cases.Caser
}

// NewDataValidator 创建数据校验器实例
func NewDataValidator(config *ProcessingConfig) *DataValidator {
	if config == nil {
		config = DefaultConfig()
	}
	return &DataValidator{
		config:     config,
		titleCaser: cases.Title(language.Und),
	}
}

// Validate 按模式校验数据集，返回清洗副本与质量报告
func (v *DataValidator) Validate(ds *models.Dataset, schema *models.DataSchema) (*models.Dataset, *models.QualityReport) {
	var errs []models.ValidationError
	var warnings []string
	cleaned := ds.Copy()

	for _, field := range schema.Fields {
		if !ds.HasColumn(field.Name) {
			if field.IsRequired {
				errs = append(errs, models.ValidationError{
					Field:     field.Name,
					ErrorType: "missing_required_field",
					Message:   fmt.Sprintf("必填字段 '%s' 缺失", field.Name),
					Severity:  "error",
				})
			}
			continue
		}
		fieldErrs, fieldWarnings := v.validateField(cleaned, field)
		errs = append(errs, fieldErrs...)
		warnings = append(warnings, fieldWarnings...)
	}

	totalCells := ds.NumRows() * ds.NumColumns()
	nullCells := 0
	for _, c := range ds.Columns {
		nullCells += ds.NullCount(c)
	}
	completeness := 1.0
	if totalCells > 0 {
		completeness = 1 - float64(nullCells)/float64(totalCells)
	}

	fieldCount := len(schema.Fields)
	if fieldCount < 1 {
		fieldCount = 1
	}

	report := &models.QualityReport{
		CompletenessScore: completeness,
		ConsistencyScore:  v.consistencyScore(ds, schema),
		ValidityScore:     1 - float64(len(errs))/float64(fieldCount),
		OutlierPercentage: v.outlierPercentage(ds),
		Errors:            errs,
		Warnings:          warnings,
		TotalRecords:      ds.NumRows(),
		ValidRecords:      ds.NumRows() - countErrorType(errs, "invalid_record"),
	}
	report.Finalize()

	return cleaned, report
}

// validateField 校验单个字段
func (v *DataValidator) validateField(ds *models.Dataset, field models.FieldSchema) ([]models.ValidationError, []string) {
	var errs []models.ValidationError
	var warnings []string

	if field.IsRequired {
		if nullCount := ds.NullCount(field.Name); nullCount > 0 {
			errs = append(errs, models.ValidationError{
				Field:     field.Name,
				ErrorType: "null_required_field",
				Message:   fmt.Sprintf("必填字段存在 %d 个空值", nullCount),
				Severity:  "error",
			})
		}
	}

	if field.FieldType == models.FieldTypeNumeric {
		nonNumeric := 0
		for _, row := range ds.Rows {
			if row[field.Name] == nil {
				continue
			}
			if _, ok := parseNumeric(row[field.Name]); !ok {
				nonNumeric++
			}
		}
		if nonNumeric > 0 {
			errs = append(errs, models.ValidationError{
				Field:     field.Name,
				ErrorType: "invalid_numeric",
				Message:   fmt.Sprintf("数值字段中发现 %d 个非数值取值", nonNumeric),
				Severity:  "error",
			})
		}

		if field.Constraints.Min != nil {
			belowMin := 0
			for _, row := range ds.Rows {
				if f, ok := parseNumeric(row[field.Name]); ok && f < *field.Constraints.Min {
					belowMin++
				}
			}
			if belowMin > 0 {
				warnings = append(warnings, fmt.Sprintf("字段 '%s' 存在 %d 个低于最小值的取值", field.Name, belowMin))
			}
		}
	}

	if len(field.Constraints.AllowedValues) > 0 {
		allowed := make(map[string]struct{}, len(field.Constraints.AllowedValues))
		for _, av := range field.Constraints.AllowedValues {
			allowed[av] = struct{}{}
		}
		invalid := 0
		for _, row := range ds.Rows {
			s, ok := row[field.Name].(string)
			if !ok {
				continue
			}
			if _, found := allowed[s]; !found {
				invalid++
			}
		}
		if invalid > 0 {
			errs = append(errs, models.ValidationError{
				Field:     field.Name,
				ErrorType: "invalid_categorical_value",
				Message:   fmt.Sprintf("发现 %d 个不在允许集合内的分类取值", invalid),
				Severity:  "error",
			})
		}
	}

	return errs, warnings
}

// consistencyScore 一致性分数：文本字段的混合大小写风格判定比例
func (v *DataValidator) consistencyScore(ds *models.Dataset, schema *models.DataSchema) float64 {
	issues := 0
	checks := 0

	for _, field := range schema.Fields {
		if !ds.HasColumn(field.Name) {
			continue
		}
		checks++
		if field.FieldType == models.FieldTypeText && v.hasFormatInconsistency(ds, field.Name) {
			issues++
		}
	}

	if checks < 1 {
		checks = 1
	}
	return 1 - float64(issues)/float64(checks)
}

// hasFormatInconsistency 判断文本列是否同时存在两种以上占比超过阈值的大小写风格。
// 采样上限为 ValidationSampleSize 行，该检查是唯一对字符串逐行扫描的高开销检查。
func (v *DataValidator) hasFormatInconsistency(ds *models.Dataset, column string) bool {
	nonNull := ds.NonNullStrings(column)
	if v.config.ValidationSampleSize > 0 && len(nonNull) > v.config.ValidationSampleSize {
		nonNull = nonNull[:v.config.ValidationSampleSize]
	}
	if len(nonNull) < 2 {
		return false
	}

	upper, lower, title := 0, 0, 0
	for _, s := range nonNull {
		switch {
		case isUpperString(s):
			upper++
		case isLowerString(s):
			lower++
		}
		if isTitleString(s, v.titleCaser) {
			title++
		}
	}

	threshold := casingMixThreshold * float64(len(nonNull))
	if float64(upper) > threshold && float64(lower) > threshold {
		return true
	}
	return float64(title) > threshold && (float64(upper) > threshold || float64(lower) > threshold)
}

// outlierPercentage 全部数值列的IQR离群占比汇总
func (v *DataValidator) outlierPercentage(ds *models.Dataset) float64 {
	totalOutliers := 0
	totalValues := 0

	for _, col := range numericColumns(ds) {
		values := numericValues(ds, col)
		if len(values) < minIQRValues {
			continue
		}
		q1 := quantile(values, 0.25)
		q3 := quantile(values, 0.75)
		iqr := q3 - q1
		lowBound := q1 - iqrMultiplier*iqr
		highBound := q3 + iqrMultiplier*iqr
		for _, val := range values {
			if val < lowBound || val > highBound {
				totalOutliers++
			}
		}
		totalValues += len(values)
	}

	if totalValues < 1 {
		return 0
	}
	return float64(totalOutliers) / float64(totalValues)
}

func countErrorType(errs []models.ValidationError, errorType string) int {
	count := 0
	for _, e := range errs {
		if e.ErrorType == errorType {
			count++
		}
	}
	return count
}

// isUpperString 所有含大小写字母均为大写且至少含一个字母
func isUpperString(s string) bool {
	hasCased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasCased = true
		}
	}
	return hasCased
}

// isLowerString 所有含大小写字母均为小写且至少含一个字母
func isLowerString(s string) bool {
	hasCased := false
	for _, r := range s {
		if unicode.IsUpper(r) {
			return false
		}
		if unicode.IsLower(r) {
			hasCased = true
		}
	}
	return hasCased
}

// isTitleString 与标题化（Title Case）结果一致且并非全大写
func isTitleString(s string, caser cases.Caser) bool {
	if isUpperString(s) {
		return false
	}
	titled := caser.String(strings.ToLower(s))
	return s == titled && s != strings.ToLower(s)
}
