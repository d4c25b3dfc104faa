// @title Lingua 后端 API
// @version 1.0
// @description 语言学习平台的后端服务器：任务、等级进度、评论校验与评分。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"flag"
	"lingua_backend/internal/app"
	"lingua_backend/internal/config"
	"lingua_backend/internal/importer"
	"lingua_backend/internal/repository"
	"lingua_backend/pkg/logger"
	"log"

	"go.uber.org/zap"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录")
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移与主题初始化，完成后退出")
	importWords := flag.String("import-words", "", "从 xlsx/csv 文件导入词库后退出")
	sheet := flag.String("sheet", "", "导入 xlsx 时使用的工作表，默认第一个")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MigrateOnly = *migrateOnly

	if *migrateOnly || *importWords != "" {
		runOnce(cfg, *importWords, *sheet)
		return
	}

	application := app.NewApp(cfg, *configDir)
	defer logger.Log.Sync()

	application.Run()
}

// runOnce 迁移（以及可选的词库导入）后退出，不启动 HTTP 服务
func runOnce(cfg *config.Config, wordFile, sheet string) {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if wordFile == "" {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	im := importer.New(repository.NewWordRepository(db), repository.NewTopicRepository(db))
	res, err := im.Import(context.Background(), importer.Config{
		FilePath:   wordFile,
		SheetName:  sheet,
		SkipHeader: true,
	})
	if err != nil {
		log.Fatalf("Failed to import words: %v", err)
	}
	for _, e := range res.Errors {
		logger.Log.Warn("Skipped row", zap.String("reason", e))
	}
	logger.Log.Info("Word import finished",
		zap.Int("processed", res.Processed),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped))
}
