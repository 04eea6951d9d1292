package entities

import "time"

type User struct {
	Username     string    `json:"username" gorm:"type:text;primaryKey"`
	PasswordHash string    `json:"-" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
}

func (User) TableName() string {
	return "users"
}
