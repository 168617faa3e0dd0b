package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kweriko/medverify-backend/internal/application/services"
	"github.com/kweriko/medverify-backend/internal/evaluation"
	"github.com/kweriko/medverify-backend/pkg/config"
)

func main() {
	goldenPath := flag.String("golden", "config/golden_scenarios.json", "path to the golden scenario set")
	minAccuracy := flag.Float64("min-accuracy", 0, "fail the run below this accuracy (0 uses the default)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	engine, err := services.NewVerificationEngine(cfg.Fusion)
	if err != nil {
		log.Fatalf("Failed to build verification engine: %v", err)
	}

	scenarios, err := evaluation.LoadGoldenScenarios(*goldenPath)
	if err != nil {
		log.Fatalf("Failed to load golden scenarios: %v", err)
	}

	runner := evaluation.NewRunner(engine)
	summary, results, err := runner.Run(context.Background(), scenarios)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	guardrails := evaluation.NewGuardrails(evaluation.GuardrailConfig{
		MinAccuracy: *minAccuracy,
	})
	if violations := guardrails.Violations(summary, results); len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, "guardrail violation: "+v)
		}
		os.Exit(1)
	}
}
