/*
 * @module service/processing/loader
 * @description CSV加载器，支持文件路径与UTF-8字节内容两种来源，逐行流式读取
 * @architecture 分层架构 - 处理服务层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 来源校验 -> 表头读取 -> 逐行解析 -> 数据集构建
 * @rules 空单元格解析为 nil，表头去除首尾空白；加载过程响应上下文取消
 * @dependencies insight-service/service/models
 * @refs service/processing/processor.go
 */

package processing

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"insight-service/service/models"
)

// ErrMalformedCSV CSV格式错误
var ErrMalformedCSV = errors.New("CSV格式错误")

// LoadCSVFile 从文件路径加载CSV
func LoadCSVFile(ctx context.Context, path string, streamingThreshold int) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开CSV文件失败: %w", err)
	}
	defer f.Close()
	return readCSV(ctx, f, streamingThreshold)
}

// LoadCSVContent 从字节内容加载CSV
func LoadCSVContent(ctx context.Context, content []byte, streamingThreshold int) (*models.Dataset, error) {
	return readCSV(ctx, bytes.NewReader(content), streamingThreshold)
}

func readCSV(ctx context.Context, r io.Reader, streamingThreshold int) (*models.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		// 空输入视为零行零列数据集而非错误
		return models.NewDataset(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}
	ds := models.NewDataset(columns)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		// FieldsPerRecord 默认按表头列数校验，列数不符的行已在上面报错
		row := make(models.Row, len(columns))
		for i, c := range columns {
			v := strings.TrimSpace(record[i])
			if v == "" {
				row[c] = nil
			} else {
				row[c] = v
			}
		}
		ds.Rows = append(ds.Rows, row)
		if streamingThreshold > 0 && len(ds.Rows) == streamingThreshold {
			slog.Debug("CSV行数超过流式处理阈值", "threshold", streamingThreshold)
		}
	}
	return ds, nil
}
