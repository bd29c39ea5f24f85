/*
 * @module service/event/notifier
 * @description 处理完成事件通知器：分析成功后向Kafka发布结果摘要事件，供下游交付物渲染等消费方订阅
 * @architecture 分层架构 - 事件服务层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 分析完成 -> 事件构建 -> Kafka发布（尽力而为）
 * @rules 通知失败只记日志，绝不使分析请求失败；未配置KAFKA_BROKERS时通知器为空实现
 * @dependencies github.com/segmentio/kafka-go
 * @refs api/controllers/processing_controller.go
 */

package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"insight-service/service/models"
)

// defaultCompletionTopic 处理完成事件默认主题
const defaultCompletionTopic = "insight.processing.completed"

// CompletionEvent 处理完成事件载荷
type CompletionEvent struct {
	ResultID     string            `json:"result_id"`
	Domain       models.DataDomain `json:"domain"`
	TotalRecords int               `json:"total_records"`
	OverallScore float64           `json:"overall_score"`
	CompletedAt  time.Time         `json:"completed_at"`
}

// CompletionNotifier 处理完成事件通知器
type CompletionNotifier struct {
	writer *kafka.Writer
}

// NewCompletionNotifierFromEnv 从 KAFKA_BROKERS 环境变量构建通知器，未配置时返回 nil
func NewCompletionNotifierFromEnv() *CompletionNotifier {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil
	}
	topic := os.Getenv("KAFKA_COMPLETION_TOPIC")
	if topic == "" {
		topic = defaultCompletionTopic
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	slog.Info("处理完成事件通知器已启用", "topic", topic)
	return &CompletionNotifier{writer: writer}
}

// NotifyCompleted 发布处理完成事件
func (n *CompletionNotifier) NotifyCompleted(ctx context.Context, resultID string, result *models.ProcessingResult) {
	if n == nil || n.writer == nil {
		return
	}
	event := CompletionEvent{
		ResultID:     resultID,
		Domain:       result.Schema.Domain,
		TotalRecords: result.QualityReport.TotalRecords,
		OverallScore: result.QualityReport.OverallScore,
		CompletedAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("处理完成事件序列化失败", "result_id", resultID, "error", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(resultID),
		Value: payload,
	}); err != nil {
		slog.Warn("处理完成事件发布失败", "result_id", resultID, "error", err)
	}
}

// Close 关闭底层Kafka写入器
func (n *CompletionNotifier) Close() error {
	if n == nil || n.writer == nil {
		return nil
	}
	return n.writer.Close()
}
