package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pawpack/backend/internal/logger"
	"github.com/pawpack/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultUsersPaths are tried in order when loading the seed users file.
var DefaultUsersPaths = []string{"data/initial-users.json", "../../data/initial-users.json"}

// UserData represents the structure of users in the JSON file
type UserData struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

// JSONData represents the structure of the JSON files
type JSONData struct {
	Users []UserData `json:"users"`
}

// LoadUsers reads the first users file that exists.
func LoadUsers(paths ...string) ([]UserData, error) {
	var lastErr error
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		var data JSONData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return data.Users, nil
	}
	return nil, fmt.Errorf("failed to read users file: %w", lastErr)
}

// ParseRole maps a seed role name to a user role, defaulting to member.
func ParseRole(name string) models.UserRole {
	switch strings.ToLower(name) {
	case "admin":
		return models.RoleAdmin
	case "expert":
		return models.RoleExpert
	default:
		return models.RoleMember
	}
}

// Run creates the seed users and a small set of sample content. Existing rows are left alone.
func Run(conn *gorm.DB, users []UserData) error {
	created, err := seedUsers(conn, users)
	if err != nil {
		return err
	}

	var owner models.User
	for _, u := range created {
		if u.Role == models.RoleMember {
			owner = u
			break
		}
	}
	if owner.ID == 0 {
		logger.Warn("No member user seeded, skipping sample content", nil)
		return nil
	}

	return seedSampleContent(conn, owner)
}

func seedUsers(conn *gorm.DB, users []UserData) ([]models.User, error) {
	result := make([]models.User, 0, len(users))
	for _, data := range users {
		var existing models.User
		err := conn.Where("email = ?", data.Email).First(&existing).Error
		if err == nil {
			logger.Info("User already exists", map[string]interface{}{"email": data.Email})
			result = append(result, existing)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up user %s: %w", data.Email, err)
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", data.Email, err)
		}

		user := models.User{
			Username:    data.Username,
			Email:       data.Email,
			Password:    string(hashed),
			DisplayName: data.DisplayName,
			Role:        ParseRole(data.Role),
		}
		if err := conn.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", data.Email, err)
		}
		logger.Info("Created user", map[string]interface{}{"email": user.Email, "role": user.Role})
		result = append(result, user)
	}
	return result, nil
}

func seedSampleContent(conn *gorm.DB, owner models.User) error {
	var count int64
	if err := conn.Model(&models.Dog{}).Where("owner_id = ?", owner.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Sample content already present", nil)
		return nil
	}

	return conn.Transaction(func(tx *gorm.DB) error {
		birth := time.Date(2019, 5, 4, 0, 0, 0, 0, time.UTC)
		weight := 24.0
		dosage := "1 tablet monthly"
		dog := models.Dog{
			OwnerID:   owner.ID,
			Name:      "Biscuit",
			Breed:     "Australian Shepherd",
			BirthDate: &birth,
			Gender:    "male",
			WeightKg:  &weight,
			Bio:       "High energy, loves agility and swimming.",
			HealthRecords: []models.HealthRecord{
				{RecordType: models.HealthRecordVaccination, Title: "Rabies booster", RecordDate: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)},
				{RecordType: models.HealthRecordMedication, Title: "Flea and tick prevention", Dosage: &dosage, RecordDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
				{RecordType: models.HealthRecordAllergy, Title: "Chicken protein allergy", RecordDate: time.Date(2022, 9, 20, 0, 0, 0, 0, time.UTC)},
			},
		}
		if err := tx.Create(&dog).Error; err != nil {
			return fmt.Errorf("failed to create sample dog: %w", err)
		}

		question := models.ExpertQuestion{
			AuthorID: owner.ID,
			Title:    "Red, itchy paws after swimming",
			Body:     "Biscuit keeps licking his paws after we swim in the lake. They look red between the toes. Should I be worried?",
			Category: "health",
			Status:   models.QuestionOpen,
			Dogs:     []models.Dog{dog},
		}
		if err := tx.Create(&question).Error; err != nil {
			return fmt.Errorf("failed to create sample question: %w", err)
		}

		alert := models.SafetyAlert{
			ReporterID: owner.ID,
			Title:      "Blue-green algae at Mill Lake",
			Message:    "Green scum spotted along the north shore. Keep dogs out of the water.",
			HazardType: models.HazardAlgaeBloom,
			Severity:   models.AlertSeverityHigh,
			Region:     "Mill Lake",
			Source:     "community",
		}
		if err := tx.Create(&alert).Error; err != nil {
			return fmt.Errorf("failed to create sample alert: %w", err)
		}

		logger.Info("Created sample content", map[string]interface{}{
			"dog_id":      dog.ID,
			"question_id": question.ID,
			"alert_id":    alert.ID,
		})
		return nil
	})
}
