/*
 * @module service/models/dataset
 * @description 通用表格数据载体，列有序、行为同构键值映射，空值以 nil 表示
 * @architecture 分层架构 - 数据模型层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow CSV加载 -> 数据集构建 -> 校验/剖析读取
 * @rules 校验器不得修改调用方原始数据集，清洗基于深拷贝进行
 * @dependencies 无
 * @refs service/processing/loader.go
 */

package models

import (
	"strings"
)

// Row 单行数据，键为列名，值为 nil（空值）或字符串
type Row map[string]interface{}

// Dataset 有序列的表格数据集
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewDataset 创建空数据集
func NewDataset(columns []string) *Dataset {
	return &Dataset{
		Columns: append([]string{}, columns...),
		Rows:    make([]Row, 0),
	}
}

// NumRows 行数
func (d *Dataset) NumRows() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// NumColumns 列数
func (d *Dataset) NumColumns() int {
	if d == nil {
		return 0
	}
	return len(d.Columns)
}

// IsEmpty 是否为空数据集
func (d *Dataset) IsEmpty() bool {
	return d.NumRows() == 0 || d.NumColumns() == 0
}

// HasColumn 是否包含指定列
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ColumnValues 按行序返回指定列的全部取值（含空值）
func (d *Dataset) ColumnValues(name string) []interface{} {
	values := make([]interface{}, 0, len(d.Rows))
	for _, row := range d.Rows {
		values = append(values, row[name])
	}
	return values
}

// NonNullStrings 按行序返回指定列的非空字符串取值
func (d *Dataset) NonNullStrings(name string) []string {
	values := make([]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		if s, ok := row[name].(string); ok {
			values = append(values, s)
		}
	}
	return values
}

// NullCount 指定列的空值数
func (d *Dataset) NullCount(name string) int {
	count := 0
	for _, row := range d.Rows {
		if row[name] == nil {
			count++
		}
	}
	return count
}

// RowNullCount 指定行的空值数
func (d *Dataset) RowNullCount(i int) int {
	count := 0
	for _, c := range d.Columns {
		if d.Rows[i][c] == nil {
			count++
		}
	}
	return count
}

// Copy 深拷贝数据集
func (d *Dataset) Copy() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{
		Columns: append([]string{}, d.Columns...),
		Rows:    make([]Row, len(d.Rows)),
	}
	for i, row := range d.Rows {
		nr := make(Row, len(row))
		for k, v := range row {
			nr[k] = v
		}
		out.Rows[i] = nr
	}
	return out
}

// RowKey 行的完整取值键，用于重复行检测
func (d *Dataset) RowKey(i int) string {
	var b strings.Builder
	for j, c := range d.Columns {
		if j > 0 {
			b.WriteByte(0x1f)
		}
		if s, ok := d.Rows[i][c].(string); ok {
			b.WriteString(s)
		} else {
			b.WriteByte(0x00)
		}
	}
	return b.String()
}
