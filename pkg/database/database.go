package database

import (
	"context"
	"fmt"
	"lingua_backend/internal/config"
	"lingua_backend/internal/model"
	"lingua_backend/internal/repository"
	"lingua_backend/internal/util"
	appLogger "lingua_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultTopics 首次迁移时写入的主题，每个主题 1-5 级
var DefaultTopics = []struct {
	Name        string
	Description string
}{
	{"travel", "Trips, transport, hotels and holidays"},
	{"food", "Cooking, restaurants and eating habits"},
	{"work", "Jobs, offices and careers"},
	{"technology", "Devices, the internet and software"},
	{"health", "Fitness, sleep and wellbeing"},
	{"environment", "Climate, nature and recycling"},
	{"education", "Schools, studying and exams"},
}

var levelTitles = []string{"Beginner", "Elementary", "Intermediate", "Upper Intermediate", "Advanced"}

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case util.DatabaseMySQL, "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case util.DatabasePostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.DBName,
			cfg.SSLMode,
		)
		return postgres.Open(dsn), nil
	case util.DatabaseSQLite:
		return sqlite.Open(cfg.Path), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func InitDB(cfg *config.DatabaseConfig, mode string) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver != util.DatabaseSQLite {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	appLogger.Log.Info("Database connection established", zap.String("driver", cfg.Driver))
	return db, nil
}

// Migrate 建表并写入默认主题
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Topic{},
		&model.TopicLevel{},
		&model.User{},
		&model.Word{},
		&model.Task{},
		&model.TaskWord{},
		&model.UserLevel{},
	)
	if err != nil {
		return err
	}
	appLogger.Log.Info("Database migration completed")

	return SeedTopics(context.Background(), db)
}

func SeedTopics(ctx context.Context, db *gorm.DB) error {
	topics := make([]model.Topic, 0, len(DefaultTopics))
	for _, t := range DefaultTopics {
		topic := model.Topic{Name: t.Name, Description: t.Description}
		for i, title := range levelTitles {
			topic.Levels = append(topic.Levels, model.TopicLevel{
				TopicName: t.Name,
				Level:     i + 1,
				Title:     title,
			})
		}
		topics = append(topics, topic)
	}
	return repository.NewTopicRepository(db).Seed(ctx, topics)
}
