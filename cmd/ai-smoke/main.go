package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pawpack/backend/internal/config"
	"github.com/pawpack/backend/internal/models"
	"github.com/pawpack/backend/internal/services"
)

// ai-smoke sends one answer prompt and one guidance prompt through the real generation
// client and reports what the pipeline would have done with the responses.
func main() {
	skipGuidance := flag.Bool("answer-only", false, "only test the expert answer prompt")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	os.Setenv("LOG_OUTPUT", "stdout")

	cfg := config.Load()
	calls := services.NewCallLog(0)
	client := services.NewGenerationClient(cfg.Generation, services.NewThrottle(cfg.Generation.MinCallInterval), calls)

	fmt.Printf("Testing generation service (model %s)...\n", client.Model())
	if !client.Configured() {
		fmt.Println("❌ GEMINI_API_KEY is not set")
		os.Exit(1)
	}

	ctx := context.Background()
	birth := time.Now().AddDate(-4, -2, 0)
	weight := 18.5
	question := models.ExpertQuestion{
		Title:    "Limping after long walks",
		Body:     "My dog starts limping on her back left leg after walks longer than an hour. What could it be?",
		Category: "health",
	}
	dogs := []models.Dog{{
		Name:      "Pepper",
		Breed:     "Beagle",
		BirthDate: &birth,
		Gender:    "female",
		WeightKg:  &weight,
	}}

	fmt.Println("1. Testing expert answer generation...")
	start := time.Now()
	raw, err := client.Generate(ctx, services.GenerationRequest{
		CallType:        services.CallTypeExpertAnswer,
		Prompt:          services.BuildAnswerPrompt(question, dogs, time.Now()),
		MaxOutputTokens: 1024,
		Temperature:     0.7,
	})
	if err != nil {
		fmt.Printf("❌ Answer generation failed after %v: %v\n", time.Since(start), err)
		os.Exit(1)
	}
	answer, err := services.ValidateAnswerText(raw)
	if err != nil {
		fmt.Printf("❌ Answer rejected: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Answer in %v (%d chars)\n", time.Since(start), len(answer))

	if *skipGuidance {
		return
	}

	fmt.Println("2. Testing safety guidance generation...")
	alert := models.SafetyAlert{
		Title:      "Heatwave this weekend",
		Message:    "Temperatures above 35C expected through Sunday.",
		HazardType: models.HazardExtremeHeat,
		Severity:   models.AlertSeverityHigh,
	}
	start = time.Now()
	raw, err = client.Generate(ctx, services.GenerationRequest{
		CallType:        services.CallTypeSafetyGuidance,
		Prompt:          services.BuildGuidancePrompt(alert),
		MaxOutputTokens: 512,
		Temperature:     0.7,
	})
	if err != nil {
		fmt.Printf("❌ Guidance generation failed after %v: %v\n", time.Since(start), err)
		os.Exit(1)
	}
	items, err := services.ParseGuidanceList(raw)
	if err != nil {
		fmt.Printf("⚠️  Guidance rejected, fallback would be served: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Guidance in %v:\n", time.Since(start))
	for _, item := range items {
		fmt.Printf("   - %s\n", item)
	}

	fmt.Printf("Test completed! %d call(s) made.\n", calls.Len())
}
