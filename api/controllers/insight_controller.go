/*
 * @module api/controllers/insight_controller
 * @description 洞察报告控制器，负责生成与查询面向不同受众的洞察包
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow HTTP请求处理流程：读取分析结果 -> 生成洞察包 -> 登记
 * @rules 洞察包依赖已有分析结果，结果不存在时返回404
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/insight, service/storage
 */

package controllers

import (
	"net/http"

	"insight-service/service"
	"insight-service/service/insight"
	"insight-service/service/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// InsightController 洞察报告控制器
type InsightController struct {
	generator *insight.InsightGenerator
	store     *storage.ResultStore
}

// NewInsightController 创建洞察报告控制器实例
func NewInsightController() *InsightController {
	return &InsightController{
		generator: service.GlobalInsightGenerator,
		store:     service.GlobalResultStore,
	}
}

// GeneratePackage 生成洞察报告包
// @Summary 生成洞察报告包
// @Description 基于已有分析结果生成执行摘要、技术分析、临床发现与实施指南
// @Tags 洞察报告
// @Produce json
// @Param id path string true "结果ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /csv/results/{id}/insight-package [post]
func (c *InsightController) GeneratePackage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stored, err := c.store.Get(id)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse("分析结果不存在", nil))
		return
	}

	pkg, err := c.generator.Generate(stored.Result)
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("生成洞察报告失败", nil))
		return
	}

	if err := c.store.SavePackage(id, pkg); err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("保存洞察报告失败", nil))
		return
	}

	render.JSON(w, r, SuccessResponse("生成成功", pkg))
}

// GetPackage 查询洞察报告包
// @Summary 查询洞察报告包
// @Description 返回指定分析结果已生成的洞察报告包
// @Tags 洞察报告
// @Produce json
// @Param id path string true "结果ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /csv/results/{id}/insight-package [get]
func (c *InsightController) GetPackage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	stored, err := c.store.Get(id)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse("分析结果不存在", nil))
		return
	}

	if stored.Package == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, NotFoundResponse("洞察报告尚未生成", nil))
		return
	}

	render.JSON(w, r, SuccessResponse("查询成功", stored.Package))
}
