package model

import "time"

// LevelState 用户在某主题某等级上的进度状态
type LevelState string

const (
	LevelNotStarted LevelState = "NOT_STARTED"
	LevelInProgress LevelState = "IN_PROGRESS"
	LevelCompleted  LevelState = "COMPLETED"
)

// UserLevel 每个 (用户, 主题, 等级) 唯一一条
// swagger:model UserLevel
type UserLevel struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_topic_level,priority:1" json:"userId"`
	TopicName   string     `gorm:"size:100;not null;uniqueIndex:idx_user_topic_level,priority:2" json:"topicName"`
	Level       int        `gorm:"not null;uniqueIndex:idx_user_topic_level,priority:3" json:"level"`
	EarnedScore float64    `gorm:"not null;default:0" json:"earnedScore"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (UserLevel) TableName() string {
	return "user_levels"
}

func (l *UserLevel) State() LevelState {
	if l == nil {
		return LevelNotStarted
	}
	if l.CompletedAt != nil {
		return LevelCompleted
	}
	return LevelInProgress
}
