package models

import (
	"time"

	"gorm.io/gorm"
)

type QuestionStatus string

const (
	QuestionOpen     QuestionStatus = "OPEN"
	QuestionAnswered QuestionStatus = "ANSWERED"
	QuestionClosed   QuestionStatus = "CLOSED"
)

type ExpertQuestion struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	AuthorID  uint           `json:"authorId" gorm:"not null;index"`
	Title     string         `json:"title" gorm:"not null"`
	Body      string         `json:"body" gorm:"type:text;not null"`
	Category  string         `json:"category" gorm:"index"`
	Status    QuestionStatus `json:"status" gorm:"not null;default:'OPEN'"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Dogs    []Dog          `json:"dogs,omitempty" gorm:"many2many:question_dogs;"`
	Answers []ExpertAnswer `json:"answers,omitempty" gorm:"foreignKey:QuestionID"`
}

func (ExpertQuestion) TableName() string {
	return "expert_questions"
}

// IsClosed reports whether the question accepts no new answers.
func (q ExpertQuestion) IsClosed() bool {
	return q.Status == QuestionClosed
}

type ExpertAnswer struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	QuestionID    uint   `json:"questionId" gorm:"not null;index"`
	AuthorID      uint   `json:"authorId" gorm:"not null"`
	Body          string `json:"body" gorm:"type:text;not null"`
	IsAIGenerated bool   `json:"isAIGenerated" gorm:"not null;default:false"`
	// AISlot holds QuestionID on machine-generated answers and NULL otherwise,
	// so the unique index allows at most one AI answer per question.
	AISlot       *uint      `json:"-" gorm:"uniqueIndex:idx_expert_answers_ai_slot"`
	EndorsedByID *uint      `json:"endorsedById"`
	EndorsedAt   *time.Time `json:"endorsedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	Author     *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	EndorsedBy *User `json:"endorsedBy,omitempty" gorm:"foreignKey:EndorsedByID"`
}

func (ExpertAnswer) TableName() string {
	return "expert_answers"
}
