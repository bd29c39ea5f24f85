/*
 * @module service/processing/loader_test
 * @description CSV加载器单元测试
 * @architecture 测试层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 测试准备 -> CSV解析 -> 数据集验证
 * @rules 覆盖空输入、空单元格、格式错误与上下文取消
 * @dependencies testing, stretchr/testify
 */

package processing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCSVContent(t *testing.T) {
	csvData := []byte(" name , age\nalice,30\nbob,\n")

	ds, err := LoadCSVContent(context.Background(), csvData, 0)
	require.NoError(t, err)

	// 表头去除首尾空白
	assert.Equal(t, []string{"name", "age"}, ds.Columns)
	require.Equal(t, 2, ds.NumRows())
	assert.Equal(t, "alice", ds.Rows[0]["name"])
	assert.Equal(t, "30", ds.Rows[0]["age"])
	// 空单元格解析为nil
	assert.Nil(t, ds.Rows[1]["age"])
}

func TestLoadCSVContentEmpty(t *testing.T) {
	ds, err := LoadCSVContent(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.NumRows())
	assert.Equal(t, 0, ds.NumColumns())
}

func TestLoadCSVContentMalformed(t *testing.T) {
	// 第二行列数与表头不符
	csvData := []byte("a,b\n1,2,3\n")

	_, err := LoadCSVContent(context.Background(), csvData, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedCSV)
}

func TestLoadCSVContentHeaderOnly(t *testing.T) {
	ds, err := LoadCSVContent(context.Background(), []byte("a,b,c\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.NumColumns())
	assert.Equal(t, 0, ds.NumRows())
}

func TestLoadCSVContentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadCSVContent(ctx, []byte("a,b\n1,2\n"), 0)
	assert.ErrorIs(t, err, context.Canceled)
}
