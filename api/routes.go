/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers
 */

package api

import (
	"insight-service/api/controllers"
	mw "insight-service/api/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 元数据管理
	r.Route("/meta", func(r chi.Router) {
		metaController := controllers.NewMetaController()
		r.Get("/domains", metaController.GetDomains)
		r.Get("/field-types", metaController.GetFieldTypes)
	})

	// CSV处理与结果管理
	r.Route("/csv", func(r chi.Router) {
		r.Use(mw.TokenAuth)

		processingController := controllers.NewProcessingController()
		insightController := controllers.NewInsightController()

		// 上传分析
		r.Post("/analyze", processingController.AnalyzeCSV)

		r.Route("/results", func(r chi.Router) {
			r.Get("/", processingController.ListResults)
			r.Get("/{id}", processingController.GetResult)
			r.Delete("/{id}", processingController.DeleteResult)

			// 洞察报告包
			r.Post("/{id}/insight-package", insightController.GeneratePackage)
			r.Get("/{id}/insight-package", insightController.GetPackage)
		})
	})
}
