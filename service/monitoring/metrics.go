/*
 * @module service/monitoring/metrics
 * @description 处理管线Prometheus指标：分析次数、失败次数与处理耗时分布
 * @architecture 分层架构 - 监控层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 指标注册 -> 控制器观测 -> /metrics 暴露
 * @dependencies github.com/prometheus/client_golang
 * @refs main.go, api/controllers/processing_controller.go
 */

package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysisTotal CSV分析总次数，按域与结果状态分类
	AnalysisTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight",
		Name:      "analysis_total",
		Help:      "CSV分析请求总数",
	}, []string{"domain", "status"})

	// AnalysisDuration CSV分析耗时分布
	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "insight",
		Name:      "analysis_duration_seconds",
		Help:      "CSV分析处理耗时（秒）",
		Buckets:   prometheus.DefBuckets,
	})
)

// ObserveAnalysis 记录一次分析的结果与耗时
func ObserveAnalysis(domain string, err error, start time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	if domain == "" {
		domain = "unknown"
	}
	AnalysisTotal.WithLabelValues(domain, status).Inc()
	AnalysisDuration.Observe(time.Since(start).Seconds())
}
