/*
 * @module service/processing/stats
 * @description 描述统计工具：均值、中位数、样本标准差、线性插值分位数、Pearson相关
 * @architecture 工具函数模式
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 无状态计算：输入切片 -> 统计量输出
 * @rules 空切片返回零值，调用方负责全空列的跳过
 * @dependencies github.com/spf13/cast
 * @refs service/processing/validator.go, service/processing/insight_engine.go
 */

package processing

import (
	"math"
	"sort"

	"github.com/spf13/cast"

	"insight-service/service/models"
)

// parseNumeric 宽松数值解析，nil 与不可解析值返回 false
func parseNumeric(v interface{}) (float64, bool) {
	if v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// numericValues 按行序返回指定列的全部可解析数值
func numericValues(ds *models.Dataset, column string) []float64 {
	values := make([]float64, 0, ds.NumRows())
	for _, row := range ds.Rows {
		if f, ok := parseNumeric(row[column]); ok {
			values = append(values, f)
		}
	}
	return values
}

// isNumericColumn 列中存在非空值且所有非空值均可解析为数值
func isNumericColumn(ds *models.Dataset, column string) bool {
	nonNull := 0
	for _, row := range ds.Rows {
		v := row[column]
		if v == nil {
			continue
		}
		nonNull++
		if _, ok := parseNumeric(v); !ok {
			return false
		}
	}
	return nonNull > 0
}

// numericColumns 按列序返回数据驱动判定的数值列
func numericColumns(ds *models.Dataset) []string {
	cols := make([]string, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		if isNumericColumn(ds, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev 样本标准差（n-1），单值返回 0 以保证输出有限
func stddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// quantile 线性插值分位数，q ∈ [0,1]
func quantile(values []float64, q float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func median(values []float64) float64 {
	return quantile(values, 0.5)
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// pearson 两等长序列的Pearson相关系数，方差为零时返回 0 与 false
func pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0, false
	}
	mx, my := mean(xs), mean(ys)
	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	return cov / math.Sqrt(vx*vy), true
}
