/*
 * @module api/controllers/processing_controller
 * @description CSV处理控制器，负责文件上传分析与结果管理
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow HTTP请求处理流程：上传 -> 分析 -> 登记 -> 通知
 * @rules 非CSV文件与超大文件在进入处理管线前拒绝
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/processing, service/storage
 */

package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"insight-service/service"
	"insight-service/service/monitoring"
	"insight-service/service/processing"
	"insight-service/service/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// maxUploadMemory 上传文件解析的内存上限
const maxUploadMemory = 32 << 20

// ProcessingController CSV处理控制器
type ProcessingController struct {
	processor *processing.CSVProcessor
	store     *storage.ResultStore
}

// NewProcessingController 创建CSV处理控制器实例
func NewProcessingController() *ProcessingController {
	return &ProcessingController{
		processor: service.GlobalProcessor,
		store:     service.GlobalResultStore,
	}
}

// AnalyzeResponse CSV分析响应结构
type AnalyzeResponse struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result"`
}

// AnalyzeCSV 上传并分析CSV文件
// @Summary 分析CSV文件
// @Description 上传CSV文件，执行模式识别、质量校验与洞察分析
// @Tags CSV处理
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV文件"
// @Param domain formData string false "数据域（clinical/logistics/insurance/general）"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 413 {object} APIResponse
// @Router /csv/analyze [post]
func (c *ProcessingController) AnalyzeCSV(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("请求格式错误:%s", err.Error()), nil))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("缺少上传文件", nil))
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("仅支持CSV文件", nil))
		return
	}

	maxBytes := int64(c.processor.Config().MaxFileSizeMB) << 20
	if header.Size > maxBytes {
		render.Status(r, http.StatusRequestEntityTooLarge)
		render.JSON(w, r, &APIResponse{Status: http.StatusRequestEntityTooLarge, Msg: "文件大小超出限制"})
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("读取上传文件失败", nil))
		return
	}

	domain := r.FormValue("domain")
	result, err := c.processor.Analyze(r.Context(), processing.AnalyzeRequest{
		Content:  content,
		Domain:   domain,
		Filename: header.Filename,
	})
	monitoring.ObserveAnalysis(domain, err, start)
	if err != nil {
		if errors.Is(err, processing.ErrFileTooLarge) {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, &APIResponse{Status: http.StatusRequestEntityTooLarge, Msg: err.Error()})
			return
		}
		if processing.IsInvalidInput(err) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, BadRequestResponse(err.Error(), nil))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("CSV分析失败", nil))
		return
	}

	id, err := c.store.Save(result)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("保存分析结果失败", nil))
		return
	}

	// 处理完成事件异步投递，不阻塞响应
	if notifier := service.GlobalCompletionNotifier; notifier != nil {
		go notifier.NotifyCompleted(context.Background(), id, result)
	}

	render.JSON(w, r, SuccessResponse("分析完成", AnalyzeResponse{ID: id, Result: result}))
}

// ListResults 查询分析结果列表
// @Summary 查询分析结果列表
// @Description 按创建时间倒序返回所有分析结果摘要
// @Tags CSV处理
// @Produce json
// @Success 200 {object} APIResponse
// @Router /csv/results [get]
func (c *ProcessingController) ListResults(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("查询成功", c.store.List()))
}

// GetResult 查询单个分析结果
// @Summary 查询分析结果
// @Description 按ID返回完整的分析结果
// @Tags CSV处理
// @Produce json
// @Param id path string true "结果ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /csv/results/{id} [get]
func (c *ProcessingController) GetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stored, err := c.store.Get(id)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse("分析结果不存在", nil))
		return
	}

	render.JSON(w, r, SuccessResponse("查询成功", map[string]interface{}{
		"id":         stored.ID,
		"created_at": stored.CreatedAt,
		"result":     stored.Result,
	}))
}

// DeleteResult 删除分析结果
// @Summary 删除分析结果
// @Description 按ID删除分析结果及其洞察报告
// @Tags CSV处理
// @Produce json
// @Param id path string true "结果ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /csv/results/{id} [delete]
func (c *ProcessingController) DeleteResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.store.Delete(id); err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse("分析结果不存在", nil))
		return
	}

	render.JSON(w, r, SuccessResponse("删除成功", nil))
}
