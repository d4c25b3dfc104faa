// Package testutil 为仓储与服务测试提供独立的内存 SQLite 数据库。
package testutil

import (
	"context"
	"fmt"
	"lingua_backend/internal/model"
	"lingua_backend/pkg/database"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// DB 每次调用返回一个全新的、已迁移并写入默认主题的数据库。
// 只保留一个连接，事务内的查询必须使用事务句柄。
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:lingua_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func CreateUser(tb testing.TB, db *gorm.DB, email string) *model.User {
	tb.Helper()
	user := &model.User{Username: email, Email: email, Password: "x"}
	if err := db.WithContext(context.Background()).Create(user).Error; err != nil {
		tb.Fatalf("create user: %v", err)
	}
	return user
}

func CreateWord(tb testing.TB, db *gorm.DB, topic string, level int, text string) *model.Word {
	tb.Helper()
	word := &model.Word{Text: text, Translation: text, TopicName: topic, Level: level}
	if err := db.Create(word).Error; err != nil {
		tb.Fatalf("create word: %v", err)
	}
	return word
}
