package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/roadready/roadready-backend/internal/config"
	"github.com/roadready/roadready-backend/internal/database"
	"github.com/roadready/roadready-backend/internal/logger"
	"github.com/roadready/roadready-backend/internal/model"
	"github.com/roadready/roadready-backend/internal/repository"
)

// seedQuestion is one entry in the seed file.
type seedQuestion struct {
	Prompt        string                 `json:"prompt"`
	Options       []model.QuestionOption `json:"options"`
	CorrectOption string                 `json:"correct_option"`
	Explanation   string                 `json:"explanation"`
}

func main() {
	var file string
	flag.StringVar(&file, "file", "questions.json", "Path to the question seed file")
	flag.Parse()

	cfg := config.Load()
	zlog := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatalf("read seed file: %v", err)
	}

	var seeds []seedQuestion
	if err := json.Unmarshal(raw, &seeds); err != nil {
		log.Fatalf("parse seed file: %v", err)
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg, zlog)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	repo := repository.NewQuestionRepository(pool)

	inserted := 0
	for i, seed := range seeds {
		if err := validateSeed(seed); err != nil {
			log.Fatalf("question %d: %v", i, err)
		}
		options, _ := json.Marshal(seed.Options)
		q := &model.Question{
			Prompt:        seed.Prompt,
			Options:       options,
			CorrectOption: seed.CorrectOption,
			Explanation:   seed.Explanation,
		}
		if err := repo.Create(ctx, q); err != nil {
			log.Fatalf("insert question %d: %v", i, err)
		}
		inserted++
	}

	fmt.Printf("Seeded %d questions\n", inserted)
}

// validateSeed enforces the question shape: 3–4 options labeled from A, and
// a correct option that is one of the labels.
func validateSeed(seed seedQuestion) error {
	if seed.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	if len(seed.Options) < 3 || len(seed.Options) > 4 {
		return fmt.Errorf("expected 3 or 4 options, got %d", len(seed.Options))
	}
	labels := []string{"A", "B", "C", "D"}
	correctSeen := false
	for i, opt := range seed.Options {
		if opt.Label != labels[i] {
			return fmt.Errorf("option %d must be labeled %s", i, labels[i])
		}
		if opt.Text == "" {
			return fmt.Errorf("option %s has no text", opt.Label)
		}
		if opt.Label == seed.CorrectOption {
			correctSeen = true
		}
	}
	if !correctSeen {
		return fmt.Errorf("correct_option %q is not among the option labels", seed.CorrectOption)
	}
	return nil
}
