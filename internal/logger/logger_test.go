package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logrus.Level
	}{
		{"DEBUG", logrus.DebugLevel},
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"ERROR", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}

	for _, test := range tests {
		if got := parseLevel(test.input); got != test.expected {
			t.Errorf("For level '%s', expected %s, got %s", test.input, test.expected, got)
		}
	}
}

func TestWithGenerationFields(t *testing.T) {
	t.Setenv("LOG_OUTPUT", "stdout")

	entry := WithGeneration("question", 42)

	if entry.Data["subject_type"] != "question" {
		t.Errorf("Expected subject_type 'question', got %v", entry.Data["subject_type"])
	}
	if entry.Data["subject_id"] != uint(42) {
		t.Errorf("Expected subject_id 42, got %v", entry.Data["subject_id"])
	}
	if entry.Data["component"] != "ai_generation" {
		t.Errorf("Expected component 'ai_generation', got %v", entry.Data["component"])
	}
}
