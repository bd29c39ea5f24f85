/*
 * @module service/processing/config
 * @description CSV处理配置，包含文件大小上限、流式处理阈值、校验采样行数与类型推断开关
 * @architecture 分层架构 - 处理服务层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 环境变量读取 -> 配置构建 -> 处理器只读引用
 * @rules 配置在并发分析之间只读共享，不含可变状态
 * @dependencies insight-service/service/models
 * @refs service/processing/processor.go
 */

package processing

import (
	"os"
	"strconv"

	"insight-service/service/models"
)

// ProcessingConfig CSV处理配置
type ProcessingConfig struct {
	// MaxFileSizeMB 超过该大小的上传在处理前被拒绝
	MaxFileSizeMB int
	// StreamingThresholdRows 超过该行数时记录流式加载提示，不改变输出
	StreamingThresholdRows int
	// ValidationSampleSize 一致性检查采样的行数上限
	ValidationSampleSize int
	// AutoDetectTypes 是否启用基于取值的类型推断
	AutoDetectTypes bool
	// Domain 非空时跳过域检测
	Domain models.DataDomain
}

// DefaultConfig 默认处理配置
func DefaultConfig() *ProcessingConfig {
	return &ProcessingConfig{
		MaxFileSizeMB:          100,
		StreamingThresholdRows: 10000,
		ValidationSampleSize:   1000,
		AutoDetectTypes:        true,
	}
}

// ConfigFromEnv 从环境变量构建配置，未设置项使用默认值
func ConfigFromEnv() *ProcessingConfig {
	config := DefaultConfig()
	if v := getEnvInt("CSV_MAX_FILE_SIZE_MB"); v > 0 {
		config.MaxFileSizeMB = v
	}
	if v := getEnvInt("CSV_STREAMING_THRESHOLD_ROWS"); v > 0 {
		config.StreamingThresholdRows = v
	}
	if v := getEnvInt("CSV_VALIDATION_SAMPLE_SIZE"); v > 0 {
		config.ValidationSampleSize = v
	}
	if v := os.Getenv("CSV_AUTO_DETECT_TYPES"); v != "" {
		config.AutoDetectTypes = v != "false" && v != "0"
	}
	return config
}

func getEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
