package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleMember UserRole = "MEMBER"
	RoleExpert UserRole = "EXPERT"
	RoleAdmin  UserRole = "ADMIN"
	// RoleSystem is reserved for the AI assistant principal.
	RoleSystem UserRole = "SYSTEM"
)

// AIAssistantUsername identifies the principal that owns every machine-generated answer.
const AIAssistantUsername = "ai_assistant"

type User struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Username    string         `json:"username" gorm:"uniqueIndex;not null"`
	Email       string         `json:"email" gorm:"uniqueIndex;not null"`
	Password    string         `json:"-" gorm:"not null"`
	DisplayName string         `json:"displayName" gorm:"not null"`
	Role        UserRole       `json:"role" gorm:"not null;default:'MEMBER'"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// CanEndorse reports whether the user may endorse machine-generated answers.
func (u User) CanEndorse() bool {
	return u.Role == RoleExpert || u.Role == RoleAdmin
}
