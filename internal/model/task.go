package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TaskType 任务类型，封闭枚举
type TaskType uint8

const (
	TaskFlashcard TaskType = iota + 1
	TaskPost
	TaskConversation
	TaskQuiz
)

var AllTaskTypes = []TaskType{TaskFlashcard, TaskPost, TaskConversation, TaskQuiz}

func (t TaskType) String() string {
	switch t {
	case TaskFlashcard:
		return "flashcard"
	case TaskPost:
		return "post"
	case TaskConversation:
		return "conversation"
	case TaskQuiz:
		return "quiz"
	}
	return fmt.Sprintf("TaskType(%d)", uint8(t))
}

func (t TaskType) Valid() bool {
	return t >= TaskFlashcard && t <= TaskQuiz
}

// CompletesLevel 完成该类型任务时是否结算当前等级并解锁下一等级
func (t TaskType) CompletesLevel() bool {
	switch t {
	case TaskConversation:
		return true
	case TaskFlashcard, TaskPost, TaskQuiz:
		return false
	}
	return false
}

func ParseTaskType(s string) (TaskType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flashcard":
		return TaskFlashcard, nil
	case "post":
		return TaskPost, nil
	case "conversation":
		return TaskConversation, nil
	case "quiz":
		return TaskQuiz, nil
	}
	return 0, fmt.Errorf("unknown task type %q", s)
}

func (t TaskType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid task type %d", uint8(t))
	}
	return json.Marshal(t.String())
}

func (t *TaskType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTaskType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TaskType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid task type %d", uint8(t))
	}
	return t.String(), nil
}

func (t *TaskType) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into TaskType", value)
	}
	parsed, err := ParseTaskType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// OpenSlotValue 未完成任务的 open_slot 取值；完成后置为 NULL，
// 唯一索引因此只约束未完成的任务
const OpenSlotValue = "open"

// swagger:model Task
type Task struct {
	ID              string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID          string     `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_task_open,priority:1" json:"userId"`
	TopicName       string     `gorm:"size:100;not null;uniqueIndex:idx_task_open,priority:2" json:"topicName"`
	Level           int        `gorm:"not null;uniqueIndex:idx_task_open,priority:3" json:"level"`
	TaskType        TaskType   `gorm:"type:varchar(20);not null;uniqueIndex:idx_task_open,priority:4" json:"taskType"`
	OpenSlot        *string    `gorm:"size:8;uniqueIndex:idx_task_open,priority:5" json:"-"`
	Score           *float64   `json:"score"`
	SourceText      string     `gorm:"type:text" json:"sourceText,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt"`
	DurationSeconds *int       `json:"durationSeconds"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) IsOpen() bool {
	return t.CompletedAt == nil
}
