package models

import (
	"time"

	"gorm.io/gorm"
)

type Dog struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	OwnerID   uint           `json:"ownerId" gorm:"not null;index"`
	Name      string         `json:"name" gorm:"not null"`
	Breed     string         `json:"breed"`
	BirthDate *time.Time     `json:"birthDate"`
	Gender    string         `json:"gender"`
	WeightKg  *float64       `json:"weightKg"`
	Bio       string         `json:"bio" gorm:"type:text"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	HealthRecords []HealthRecord `json:"healthRecords,omitempty" gorm:"foreignKey:DogID"`
}

func (Dog) TableName() string {
	return "dogs"
}

type HealthRecordType string

const (
	HealthRecordVaccination HealthRecordType = "vaccination"
	HealthRecordMedication  HealthRecordType = "medication"
	HealthRecordVetVisit    HealthRecordType = "vet_visit"
	HealthRecordAllergy     HealthRecordType = "allergy"
	HealthRecordSurgery     HealthRecordType = "surgery"
	HealthRecordOther       HealthRecordType = "other"
)

type HealthRecord struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	DogID       uint             `json:"dogId" gorm:"not null;index"`
	RecordType  HealthRecordType `json:"recordType" gorm:"not null"`
	Title       string           `json:"title" gorm:"not null"`
	Description *string          `json:"description" gorm:"type:text"`
	RecordDate  time.Time        `json:"recordDate" gorm:"not null;index"`
	Dosage      *string          `json:"dosage"`
	Clinic      *string          `json:"clinic"`
	Notes       *string          `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func (HealthRecord) TableName() string {
	return "health_records"
}
