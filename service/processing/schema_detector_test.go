/*
 * @module service/processing/schema_detector_test
 * @description 模式检测器单元测试
 * @architecture 测试层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 数据集构建 -> 域检测/类型推断 -> 模式验证
 * @rules 覆盖域识别、字段类型优先级、约束计算与置信度
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

// makeDataset 测试数据集构建辅助函数
func makeDataset(columns []string, rows ...[]interface{}) *models.Dataset {
	ds := models.NewDataset(columns)
	for _, values := range rows {
		row := make(models.Row, len(columns))
		for i, c := range columns {
			row[c] = values[i]
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}

// makeClinicalDataset 构建典型临床数据集
func makeClinicalDataset(rows int) *models.Dataset {
	ds := models.NewDataset([]string{"patient_id", "age", "diagnosis", "stage", "outcome"})
	diagnoses := []string{"adenocarcinoma", "squamous", "carcinoid"}
	stages := []string{"IA", "IB", "II", "III"}
	outcomes := []string{"improved", "stable", "deceased"}
	for i := 0; i < rows; i++ {
		ds.Rows = append(ds.Rows, models.Row{
			"patient_id": fmt.Sprintf("P%04d", i),
			"age":        fmt.Sprintf("%d", 40+i%40),
			"diagnosis":  diagnoses[i%len(diagnoses)],
			"stage":      stages[i%len(stages)],
			"outcome":    outcomes[i%len(outcomes)],
		})
	}
	return ds
}

func TestDetectDomainClinical(t *testing.T) {
	detector := NewSchemaDetector(nil)
	ds := makeClinicalDataset(100)

	assert.Equal(t, models.DomainClinical, detector.DetectDomain(ds))
}

func TestDetectDomainLogistics(t *testing.T) {
	detector := NewSchemaDetector(nil)
	ds := makeDataset(
		[]string{"resource", "capacity", "utilization", "schedule"},
		[]interface{}{"bed", "10", "0.8", "night"},
		[]interface{}{"or_room", "4", "0.9", "day"},
	)

	assert.Equal(t, models.DomainLogistics, detector.DetectDomain(ds))
}

func TestDetectDomainGeneral(t *testing.T) {
	detector := NewSchemaDetector(nil)

	// 无任何域特征时回落到通用域
	ds := makeDataset(
		[]string{"foo", "bar"},
		[]interface{}{"1", "2"},
		[]interface{}{"3", "4"},
	)
	assert.Equal(t, models.DomainGeneral, detector.DetectDomain(ds))

	// 空数据集同样回落到通用域
	assert.Equal(t, models.DomainGeneral, detector.DetectDomain(models.NewDataset(nil)))
	assert.Equal(t, models.DomainGeneral, detector.DetectDomain(nil))
}

// TestDetectDomainValueScoring 取值模式匹配不区分大小写
func TestDetectDomainValueScoring(t *testing.T) {
	detector := NewSchemaDetector(nil)
	ds := makeDataset(
		[]string{"col_a", "col_b"},
		[]interface{}{"IA", "T1"},
		[]interface{}{"III", "M0"},
	)

	// 列名无任何关键词，仅靠取值模式仍应识别为临床域
	assert.Equal(t, models.DomainClinical, detector.DetectDomain(ds))
}

func TestDetectFieldTypePrecedence(t *testing.T) {
	detector := NewSchemaDetector(nil)
	ds := makeClinicalDataset(100)

	// 名称规则优先于取值推断
	assert.Equal(t, models.FieldTypeIdentifier, detector.DetectFieldType(ds, "patient_id", models.DomainClinical))
	assert.Equal(t, models.FieldTypeMedicalCode, detector.DetectFieldType(ds, "stage", models.DomainClinical))
	assert.Equal(t, models.FieldTypeNumeric, detector.DetectFieldType(ds, "age", models.DomainClinical))
	// 3种取值/100行，唯一比低于阈值
	assert.Equal(t, models.FieldTypeCategorical, detector.DetectFieldType(ds, "diagnosis", models.DomainClinical))
}

func TestDetectFieldTypeDateAndText(t *testing.T) {
	detector := NewSchemaDetector(nil)
	ds := makeDataset(
		[]string{"admission_date", "updated", "note", "empty"},
		[]interface{}{"2024-01-01", "2024-02-01", "first visit", nil},
		[]interface{}{"2024-01-02", "2024-02-02", "followup scheduled", nil},
	)

	assert.Equal(t, models.FieldTypeDate, detector.DetectFieldType(ds, "admission_date", models.DomainGeneral))
	assert.Equal(t, models.FieldTypeDate, detector.DetectFieldType(ds, "updated", models.DomainGeneral))
	assert.Equal(t, models.FieldTypeText, detector.DetectFieldType(ds, "note", models.DomainGeneral))
	// 全空列默认为文本
	assert.Equal(t, models.FieldTypeText, detector.DetectFieldType(ds, "empty", models.DomainGeneral))
}

// TestDetectFieldTypeMedicalCodeOnlyClinical 医学编码规则仅在临床域生效
func TestDetectFieldTypeMedicalCodeOnlyClinical(t *testing.T) {
	detector := NewSchemaDetector(nil)
	ds := makeClinicalDataset(100)

	assert.Equal(t, models.FieldTypeMedicalCode, detector.DetectFieldType(ds, "stage", models.DomainClinical))
	assert.Equal(t, models.FieldTypeCategorical, detector.DetectFieldType(ds, "stage", models.DomainGeneral))
}

func TestDetectFieldTypeAutoDetectDisabled(t *testing.T) {
	config := DefaultConfig()
	config.AutoDetectTypes = false
	detector := NewSchemaDetector(config)
	ds := makeClinicalDataset(100)

	// 名称规则仍然生效
	assert.Equal(t, models.FieldTypeIdentifier, detector.DetectFieldType(ds, "patient_id", models.DomainClinical))
	// 基于取值的推断被关闭
	assert.Equal(t, models.FieldTypeText, detector.DetectFieldType(ds, "age", models.DomainClinical))
	assert.Equal(t, models.FieldTypeText, detector.DetectFieldType(ds, "diagnosis", models.DomainClinical))
}

func TestGenerateSchema(t *testing.T) {
	detector := NewSchemaDetector(nil)
	ds := makeClinicalDataset(100)
	schema := detector.GenerateSchema(ds, models.DomainClinical)

	require.Equal(t, 5, schema.TotalFields)
	assert.Equal(t, models.DomainClinical, schema.Domain)
	assert.False(t, schema.DetectedAt.IsZero())

	// 无空值的字段均为必填
	for _, field := range schema.Fields {
		assert.True(t, field.IsRequired, "字段 %s 应为必填", field.Name)
	}

	// 数值字段带观测区间约束
	age := schema.FieldByName("age")
	require.NotNil(t, age)
	require.NotNil(t, age.Constraints.Min)
	require.NotNil(t, age.Constraints.Max)
	assert.Equal(t, 40.0, *age.Constraints.Min)
	assert.Equal(t, 79.0, *age.Constraints.Max)

	// 分类字段带允许取值约束
	diagnosis := schema.FieldByName("diagnosis")
	require.NotNil(t, diagnosis)
	assert.ElementsMatch(t, []string{"adenocarcinoma", "squamous", "carcinoid"}, diagnosis.Constraints.AllowedValues)

	// 全部字段均推断出非文本类型，置信度为1
	assert.Equal(t, 1.0, schema.ConfidenceScore)
}

func TestGenerateSchemaRequiredThreshold(t *testing.T) {
	detector := NewSchemaDetector(nil)

	ds := models.NewDataset([]string{"mostly_filled", "mostly_null"})
	for i := 0; i < 20; i++ {
		row := models.Row{"mostly_filled": "x", "mostly_null": nil}
		if i == 0 {
			row["mostly_filled"] = nil
		}
		if i < 2 {
			row["mostly_null"] = "y"
		}
		ds.Rows = append(ds.Rows, row)
	}

	schema := detector.GenerateSchema(ds, models.DomainGeneral)
	// 空值率 1/20 = 5% < 10% 为必填
	assert.True(t, schema.FieldByName("mostly_filled").IsRequired)
	// 空值率 90% 不应为必填
	assert.False(t, schema.FieldByName("mostly_null").IsRequired)
}

func TestGenerateSchemaEmptyDataset(t *testing.T) {
	detector := NewSchemaDetector(nil)
	schema := detector.GenerateSchema(models.NewDataset([]string{"a"}), models.DomainGeneral)

	require.Equal(t, 1, schema.TotalFields)
	// 零行数据集不判定任何字段为必填
	assert.False(t, schema.Fields[0].IsRequired)
}
