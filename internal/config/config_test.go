package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidateConfigDefaults(t *testing.T) {
	config := &Config{
		Pipeline:  Pipeline{Workers: 4, RetryAttempts: 3, RetryBackoff: "1s"},
		Classify:  Classify{Epsilon: 0.05, PivotLanguage: "en"},
		Summary:   Summary{TargetWords: 150, MaxChars: 1200, ChunkChars: 4000},
		Recommend: Recommend{ContentWeight: 0.6, CollaborativeWeight: 0.4, Neighbors: 20},
	}

	if err := validateConfig(config); err != nil {
		t.Errorf("Expected default-shaped config to validate, got %v", err)
	}
}

func TestValidateConfigRejectsBadWeights(t *testing.T) {
	config := &Config{
		Pipeline:  Pipeline{Workers: 4, RetryAttempts: 3},
		Classify:  Classify{Epsilon: 0.05},
		Summary:   Summary{TargetWords: 150, MaxChars: 1200},
		Recommend: Recommend{ContentWeight: 0.8, CollaborativeWeight: 0.4},
	}

	err := validateConfig(config)
	if err == nil {
		t.Fatal("Expected error for weights summing to 1.2")
	}
	if !strings.Contains(err.Error(), "sum to 1.0") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestValidateConfigRejectsBadEpsilon(t *testing.T) {
	config := &Config{
		Pipeline:  Pipeline{Workers: 1, RetryAttempts: 1},
		Classify:  Classify{Epsilon: 0.5},
		Summary:   Summary{TargetWords: 150, MaxChars: 1200},
		Recommend: Recommend{ContentWeight: 0.5, CollaborativeWeight: 0.5},
	}

	if err := validateConfig(config); err == nil {
		t.Error("Expected error for epsilon outside [0, 0.5)")
	}
}

func TestValidateConfigRejectsZeroWorkers(t *testing.T) {
	config := &Config{
		Pipeline:  Pipeline{Workers: 0, RetryAttempts: 3},
		Classify:  Classify{Epsilon: 0.05},
		Summary:   Summary{TargetWords: 150, MaxChars: 1200},
		Recommend: Recommend{ContentWeight: 0.6, CollaborativeWeight: 0.4},
	}

	if err := validateConfig(config); err == nil {
		t.Error("Expected error for zero workers")
	}
}

func TestRetryBackoffDuration(t *testing.T) {
	p := Pipeline{RetryBackoff: "250ms"}
	if d := p.RetryBackoffDuration(); d != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", d)
	}

	p = Pipeline{RetryBackoff: "garbage"}
	if d := p.RetryBackoffDuration(); d != time.Second {
		t.Errorf("Expected 1s fallback, got %v", d)
	}
}
