/*
 * @module service/meta/domain_meta
 * @description 数据域与字段类型元数据定义，供前端展示与参数校验使用
 * @architecture 元数据层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 静态元数据定义
 * @rules 元数据代码必须与处理管线的枚举值保持一致
 * @refs service/models/processing_models.go
 */

package meta

import "insight-service/service/models"

// DomainDefinition 数据域定义
type DomainDefinition struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
}

// FieldTypeDefinition 字段类型定义
type FieldTypeDefinition struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DataDomains 支持的数据域
var DataDomains = []DomainDefinition{
	{
		Code:        string(models.DomainClinical),
		Name:        "临床数据",
		Description: "患者诊疗记录、诊断编码与治疗结局数据",
		Keywords:    []string{"patient", "diagnosis", "treatment", "outcome"},
	},
	{
		Code:        string(models.DomainLogistics),
		Name:        "物流数据",
		Description: "运输、仓储与配送环节的运营数据",
		Keywords:    []string{"shipment", "delivery", "warehouse", "carrier"},
	},
	{
		Code:        string(models.DomainInsurance),
		Name:        "保险数据",
		Description: "保单、理赔与承保相关业务数据",
		Keywords:    []string{"policy", "claim", "premium", "coverage"},
	},
	{
		Code:        string(models.DomainGeneral),
		Name:        "通用数据",
		Description: "未匹配到特定业务域的通用表格数据",
	},
}

// FieldTypes 模式识别支持的字段类型
var FieldTypes = []FieldTypeDefinition{
	{Code: string(models.FieldTypeIdentifier), Name: "标识符", Description: "记录主键或唯一标识字段"},
	{Code: string(models.FieldTypeDate), Name: "日期", Description: "日期或时间戳字段"},
	{Code: string(models.FieldTypeMedicalCode), Name: "医学编码", Description: "ICD/CPT等临床编码字段"},
	{Code: string(models.FieldTypeNumeric), Name: "数值", Description: "可参与统计分析的数值字段"},
	{Code: string(models.FieldTypeCategorical), Name: "分类", Description: "取值集合有限的枚举字段"},
	{Code: string(models.FieldTypeText), Name: "文本", Description: "自由文本字段"},
}
