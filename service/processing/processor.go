/*
 * @module service/processing/processor
 * @description CSV处理器：编排模式检测、数据校验与统计剖析，输出完整处理结果
 * @architecture 分层架构 - 处理服务层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 输入校验 -> 数据加载 -> 域确定 -> 模式生成 -> 数据校验 -> 洞察剖析 -> 结果组装
 * @rules 步骤1-5中的异常记日志后原样向调用方传播，不在本层吞掉
 * @dependencies insight-service/service/models
 * @refs api/controllers/processing_controller.go
 */

package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"insight-service/service/models"
)

// 无效输入类错误，调用方应映射为请求错误而非内部错误
var (
	ErrNoInput        = errors.New("必须提供文件路径或文件内容之一")
	ErrAmbiguousInput = errors.New("文件路径与文件内容不能同时提供")
	ErrFileTooLarge   = errors.New("文件超过大小上限")
	ErrUnknownDomain  = errors.New("无效的数据域覆盖值")
)

// IsInvalidInput 判断错误是否属于无效输入类
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrAmbiguousInput) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrUnknownDomain) ||
		errors.Is(err, ErrMalformedCSV)
}

// AnalyzeRequest CSV分析请求，FilePath 与 Content 必须恰好提供一个
type AnalyzeRequest struct {
	FilePath string
	Content  []byte
	// Domain 非空时覆盖自动域检测，必须是合法域值
	Domain   string
	Filename string
}

// CSVProcessor CSV处理引擎
type CSVProcessor struct {
	config    *ProcessingConfig
	detector  *SchemaDetector
	validator *DataValidator
	engine    *InsightEngine
}

// NewCSVProcessor 创建CSV处理器实例
func NewCSVProcessor(config *ProcessingConfig) *CSVProcessor {
	if config == nil {
		config = DefaultConfig()
	}
	return &CSVProcessor{
		config:    config,
		detector:  NewSchemaDetector(config),
		validator: NewDataValidator(config),
		engine:    NewInsightEngine(config),
	}
}

// Config 返回处理器的只读配置
func (p *CSVProcessor) Config() *ProcessingConfig {
	return p.config
}

// Analyze 分析CSV数据并生成完整处理结果
func (p *CSVProcessor) Analyze(ctx context.Context, req AnalyzeRequest) (*models.ProcessingResult, error) {
	result, err := p.analyze(ctx, req)
	if err != nil {
		slog.Error("CSV处理失败", "filename", req.Filename, "error", err)
		return nil, err
	}
	slog.Info("CSV处理成功",
		"rows", result.ProcessingMetadata.OriginalRows,
		"domain", result.ProcessingMetadata.Domain,
		"overall_score", result.QualityReport.OverallScore)
	return result, nil
}

func (p *CSVProcessor) analyze(ctx context.Context, req AnalyzeRequest) (*models.ProcessingResult, error) {
	ds, sizeBytes, err := p.load(ctx, req)
	if err != nil {
		return nil, err
	}

	domain, err := p.resolveDomain(ds, req.Domain)
	if err != nil {
		return nil, err
	}

	schema := p.detector.GenerateSchema(ds, domain)
	cleaned, report := p.validator.Validate(ds, schema)
	insights := p.engine.Profile(cleaned, schema)

	result := &models.ProcessingResult{
		Schema:        *schema,
		QualityReport: *report,
		Insights:      *insights,
		ProcessingMetadata: models.ProcessingMetadata{
			OriginalRows:   ds.NumRows(),
			ProcessedRows:  cleaned.NumRows(),
			ProcessingTime: time.Now().UTC(),
			Domain:         domain,
			Filename:       req.Filename,
			FileSizeMB:     float64(sizeBytes) / (1 << 20),
		},
		Data: cleaned,
	}
	return result, nil
}

// load 校验输入来源与大小上限，返回数据集与输入字节数
func (p *CSVProcessor) load(ctx context.Context, req AnalyzeRequest) (*models.Dataset, int64, error) {
	hasPath := req.FilePath != ""
	hasContent := len(req.Content) > 0
	switch {
	case !hasPath && !hasContent:
		return nil, 0, ErrNoInput
	case hasPath && hasContent:
		return nil, 0, ErrAmbiguousInput
	}

	maxBytes := int64(p.config.MaxFileSizeMB) << 20

	if hasPath {
		info, err := os.Stat(req.FilePath)
		if err != nil {
			return nil, 0, fmt.Errorf("读取CSV文件信息失败: %w", err)
		}
		if info.Size() > maxBytes {
			return nil, 0, fmt.Errorf("%w: %.2fMB > %dMB", ErrFileTooLarge,
				float64(info.Size())/(1<<20), p.config.MaxFileSizeMB)
		}
		ds, err := LoadCSVFile(ctx, req.FilePath, p.config.StreamingThresholdRows)
		return ds, info.Size(), err
	}

	size := int64(len(req.Content))
	if size > maxBytes {
		return nil, 0, fmt.Errorf("%w: %.2fMB > %dMB", ErrFileTooLarge,
			float64(size)/(1<<20), p.config.MaxFileSizeMB)
	}
	ds, err := LoadCSVContent(ctx, req.Content, p.config.StreamingThresholdRows)
	return ds, size, err
}

// resolveDomain 依次采用请求覆盖、配置覆盖与自动检测确定业务域
func (p *CSVProcessor) resolveDomain(ds *models.Dataset, override string) (models.DataDomain, error) {
	if override != "" {
		domain, err := models.ParseDataDomain(override)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnknownDomain, err)
		}
		return domain, nil
	}
	if p.config.Domain != "" {
		return p.config.Domain, nil
	}
	return p.detector.DetectDomain(ds), nil
}
