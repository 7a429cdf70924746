package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pawpack/backend/internal/models"
)

// Prompt templates for the generation service

const (
	// EXPERT_ANSWER_PROMPT produces a preliminary answer to a community expert question
	EXPERT_ANSWER_PROMPT = `You are a knowledgeable veterinary assistant helping members of a dog owners' community.
A member has asked a question for the community's experts. Write a preliminary answer that a
verified expert will later review.

GUIDELINES:
- Be practical, warm and specific to the dogs described below
- Use the health history when it is relevant to the question
- Point out clearly when a situation needs an in-person veterinary visit
- Never prescribe medication doses; refer dosing questions to a veterinarian
- Write plain text paragraphs, no markdown headings, at most 350 words

QUESTION:
Title: %s
Category: %s
%s

REFERENCED DOGS:
%s`

	// SAFETY_GUIDANCE_PROMPT produces a short list of protective actions for a safety alert
	SAFETY_GUIDANCE_PROMPT = `You are a dog safety advisor for a local dog owners' community.
An alert has been reported in the area. Give dog owners short, concrete actions to keep their dogs safe.

ALERT:
Title: %s
Hazard type: %s
Severity: %s
Region: %s
Details: %s

Return ONLY a JSON array of 4 to 6 short strings, each one actionable sentence.
Do not include explanations, numbering or markdown formatting.
Example: ["Keep your dog on a leash near the park", "Check paws after every walk"]`

	// NO_DOGS_PLACEHOLDER is used when a question references no dog profiles
	NO_DOGS_PLACEHOLDER = "No dog profiles were referenced. Answer in general terms."
)

const (
	maxPromptHealthRecords = 10
	unknownValue           = "unknown"
)

// BuildAnswerPrompt assembles the prompt for an expert question. asOf is the reference
// time for dog ages, so the same input always yields the same prompt.
func BuildAnswerPrompt(question models.ExpertQuestion, dogs []models.Dog, asOf time.Time) string {
	category := question.Category
	if strings.TrimSpace(category) == "" {
		category = "general"
	}

	dogSection := NO_DOGS_PLACEHOLDER
	if len(dogs) > 0 {
		blocks := make([]string, 0, len(dogs))
		for i, dog := range dogs {
			blocks = append(blocks, formatDog(i+1, dog, asOf))
		}
		dogSection = strings.Join(blocks, "\n\n")
	}

	return fmt.Sprintf(EXPERT_ANSWER_PROMPT,
		strings.TrimSpace(question.Title),
		category,
		strings.TrimSpace(question.Body),
		dogSection,
	)
}

// BuildGuidancePrompt assembles the prompt for a safety alert.
func BuildGuidancePrompt(alert models.SafetyAlert) string {
	region := alert.Region
	if strings.TrimSpace(region) == "" {
		region = "not specified"
	}
	severity := string(alert.Severity)
	if severity == "" {
		severity = string(models.AlertSeverityMedium)
	}

	return fmt.Sprintf(SAFETY_GUIDANCE_PROMPT,
		strings.TrimSpace(alert.Title),
		strings.ReplaceAll(string(alert.HazardType), "_", " "),
		severity,
		region,
		strings.TrimSpace(alert.Message),
	)
}

func formatDog(n int, dog models.Dog, asOf time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dog %d: %s\n", n, dog.Name)
	fmt.Fprintf(&sb, "- Breed: %s\n", orUnknown(dog.Breed))
	fmt.Fprintf(&sb, "- Age: %s\n", formatAge(dog.BirthDate, asOf))
	fmt.Fprintf(&sb, "- Gender: %s\n", orUnknown(dog.Gender))
	if dog.WeightKg != nil {
		fmt.Fprintf(&sb, "- Weight: %.1f kg\n", *dog.WeightKg)
	} else {
		sb.WriteString("- Weight: unknown\n")
	}
	if bio := strings.TrimSpace(dog.Bio); bio != "" {
		fmt.Fprintf(&sb, "- About: %s\n", bio)
	}

	records := RecentHealthRecords(dog.HealthRecords, maxPromptHealthRecords)
	if len(records) == 0 {
		sb.WriteString("- Health history: none recorded")
		return sb.String()
	}

	sb.WriteString("- Health history (newest first):")
	for _, r := range records {
		fmt.Fprintf(&sb, "\n  * %s [%s] %s", r.RecordDate.Format("2006-01-02"), r.RecordType, r.Title)
		if r.Description != nil && *r.Description != "" {
			fmt.Fprintf(&sb, ": %s", *r.Description)
		}
		if r.Dosage != nil && *r.Dosage != "" {
			fmt.Fprintf(&sb, " (dosage: %s)", *r.Dosage)
		}
		if r.Clinic != nil && *r.Clinic != "" {
			fmt.Fprintf(&sb, " (clinic: %s)", *r.Clinic)
		}
		if r.Notes != nil && *r.Notes != "" {
			fmt.Fprintf(&sb, " (notes: %s)", *r.Notes)
		}
	}
	return sb.String()
}

// RecentHealthRecords returns at most limit records, newest first. The input is not modified.
func RecentHealthRecords(records []models.HealthRecord, limit int) []models.HealthRecord {
	sorted := make([]models.HealthRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].RecordDate.Equal(sorted[j].RecordDate) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].RecordDate.After(sorted[j].RecordDate)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func formatAge(birth *time.Time, asOf time.Time) string {
	if birth == nil || birth.After(asOf) {
		return unknownValue
	}

	years := asOf.Year() - birth.Year()
	months := int(asOf.Month()) - int(birth.Month())
	if asOf.Day() < birth.Day() {
		months--
	}
	if months < 0 {
		years--
		months += 12
	}

	switch {
	case years <= 0 && months <= 0:
		return "under 1 month"
	case years <= 0:
		return plural(months, "month")
	case months == 0:
		return plural(years, "year")
	default:
		return plural(years, "year") + " " + plural(months, "month")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownValue
	}
	return s
}
