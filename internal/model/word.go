package model

// swagger:model Word
type Word struct {
	UUIDBase
	Text        string `gorm:"size:100;not null;uniqueIndex:idx_word_topic_level_text,priority:3" json:"text"`
	Translation string `gorm:"size:255" json:"translation"`
	Example     string `gorm:"type:text" json:"example,omitempty"`
	TopicName   string `gorm:"size:100;not null;uniqueIndex:idx_word_topic_level_text,priority:1" json:"topicName"`
	Level       int    `gorm:"not null;uniqueIndex:idx_word_topic_level_text,priority:2" json:"level"`
}

func (Word) TableName() string {
	return "words"
}

// TaskWord 任务与词汇的关联，同一对只保存一次
type TaskWord struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_task_word,priority:1" json:"taskId"`
	WordID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_task_word,priority:2" json:"wordId"`
}

func (TaskWord) TableName() string {
	return "task_words"
}
