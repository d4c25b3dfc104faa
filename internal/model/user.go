package model

import "time"

// swagger:model User
type User struct {
	UUIDBase
	Username  string     `gorm:"size:100;not null" json:"username"`
	Email     string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	Language  string     `gorm:"size:10;default:'en'" json:"language"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}
