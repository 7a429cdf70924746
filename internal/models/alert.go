package models

import (
	"time"

	"gorm.io/gorm"
)

type HazardType string

const (
	HazardToxicBait       HazardType = "toxic_bait"
	HazardToxicPlant      HazardType = "toxic_plant"
	HazardAlgaeBloom      HazardType = "algae_bloom"
	HazardWildlife        HazardType = "wildlife"
	HazardExtremeHeat     HazardType = "extreme_heat"
	HazardDiseaseOutbreak HazardType = "disease_outbreak"
	HazardTraffic         HazardType = "traffic"
	HazardDogTheft        HazardType = "dog_theft"
	HazardAggressiveDog   HazardType = "aggressive_dog"
	HazardHazardousWaste  HazardType = "hazardous_waste"
)

// KnownHazardTypes lists every hazard type the platform defines.
var KnownHazardTypes = []HazardType{
	HazardToxicBait,
	HazardToxicPlant,
	HazardAlgaeBloom,
	HazardWildlife,
	HazardExtremeHeat,
	HazardDiseaseOutbreak,
	HazardTraffic,
	HazardDogTheft,
	HazardAggressiveDog,
	HazardHazardousWaste,
}

type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "low"
	AlertSeverityMedium   AlertSeverity = "medium"
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityCritical AlertSeverity = "critical"
)

type SafetyAlert struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	ReporterID uint           `json:"reporterId" gorm:"not null;index"`
	Title      string         `json:"title" gorm:"not null"`
	Message    string         `json:"message" gorm:"type:text;not null"`
	HazardType HazardType     `json:"hazardType" gorm:"not null;index"`
	Severity   AlertSeverity  `json:"severity" gorm:"not null;default:'medium'"`
	Region     string         `json:"region" gorm:"index"`
	Source     string         `json:"source"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

func (SafetyAlert) TableName() string {
	return "safety_alerts"
}
