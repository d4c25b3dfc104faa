package model

// swagger:model Topic
type Topic struct {
	Name        string       `gorm:"primaryKey;size:100" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Levels      []TopicLevel `gorm:"foreignKey:TopicName;references:Name" json:"levels,omitempty"`
}

func (Topic) TableName() string {
	return "topics"
}

// TopicLevel 主题下的难度等级定义
// swagger:model TopicLevel
type TopicLevel struct {
	TopicName string `gorm:"primaryKey;size:100" json:"topicName"`
	Level     int    `gorm:"primaryKey;autoIncrement:false" json:"level"`
	Title     string `gorm:"size:255" json:"title"`
}

func (TopicLevel) TableName() string {
	return "topic_levels"
}
