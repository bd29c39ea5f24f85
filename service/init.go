/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、缓存、处理管线等初始化工作
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/csv_pipeline_impl.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 数据库与缓存均为可选依赖，缺失时降级为内存模式
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite
 * @refs service/storage, service/processing, service/insight
 */

package service

import (
	"fmt"
	"insight-service/service/event"
	"insight-service/service/insight"
	"insight-service/service/models"
	"insight-service/service/processing"
	"insight-service/service/storage"
	"log"
	"log/slog"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	DB                       *gorm.DB
	GlobalProcessor          *processing.CSVProcessor
	GlobalInsightGenerator   *insight.InsightGenerator
	GlobalResultStore        *storage.ResultStore
	GlobalRetentionService   *storage.RetentionService
	GlobalCompletionNotifier *event.CompletionNotifier
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接，未配置时以纯内存模式运行
func initDatabase() {
	dsn := databaseDSN()
	if dsn == "" {
		slog.Info("未配置数据库，分析结果仅保存在内存中")
		return
	}

	var err error
	if os.Getenv("DB_TYPE") == "sqlite" {
		DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	} else {
		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// databaseDSN 按环境变量构建数据库连接串，无任何配置时返回空串
func databaseDSN() string {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		return databaseURL
	}
	if os.Getenv("DB_TYPE") == "sqlite" {
		return getEnvWithDefault("DB_PATH", "insight.db")
	}
	if os.Getenv("DB_HOST") == "" {
		return ""
	}

	host := getEnvWithDefault("DB_HOST", "localhost")
	port := getEnvWithDefault("DB_PORT", "5432")
	user := getEnvWithDefault("DB_USER", "postgres")
	password := getEnvWithDefault("DB_PASSWORD", "postgres")
	dbname := getEnvWithDefault("DB_NAME", "postgres")
	sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
	schema := getEnvWithDefault("DB_SCHEMA", "public")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Shanghai",
		host, port, user, password, dbname, sslmode, schema)
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	if DB == nil {
		return
	}

	log.Println("开始运行数据库迁移...")
	if err := DB.AutoMigrate(&models.AnalysisRecord{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")
}

// initServices 初始化服务
func initServices() {
	cache := storage.NewResultCacheFromEnv()
	GlobalResultStore = storage.NewResultStore(DB, cache)

	cfg := processing.ConfigFromEnv()
	GlobalProcessor = processing.NewCSVProcessor(cfg)
	GlobalInsightGenerator = insight.NewInsightGenerator()
	GlobalCompletionNotifier = event.NewCompletionNotifierFromEnv()

	// 仅在配置了数据库时启动过期清理任务
	if DB != nil {
		GlobalRetentionService = storage.NewRetentionService(DB, GlobalResultStore)
		if err := GlobalRetentionService.Start(); err != nil {
			log.Printf("启动结果清理任务失败: %v", err)
		}
	}

	log.Println("服务初始化完成")
}
