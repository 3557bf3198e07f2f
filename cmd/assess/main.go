// Command assess runs one assessment offline: it reads a consolidated
// diagnoses JSON file (the upstream extractor's output), drives the full
// pipeline, and prints the disability result to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/claimhands/verdict/internal/config"
	"github.com/claimhands/verdict/internal/core"
	"github.com/claimhands/verdict/internal/core/adjudicate"
	"github.com/claimhands/verdict/internal/core/bundler"
	"github.com/claimhands/verdict/internal/core/model"
	"github.com/claimhands/verdict/internal/core/retrieval"
	"github.com/claimhands/verdict/internal/llm"
)

type consolidatedInput struct {
	DiagnosesByBodyPart model.RawDiagnoses `json:"diagnoses_by_body_part"`
}

func main() {
	inputPath := flag.String("input", "", "path to consolidated diagnoses JSON")
	cfgPath := flag.String("config", "config/config.toml", "path to config file")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing -input path")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	cfg.ApplyEnvOverrides()

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		logger.Fatal("failed to read input file", zap.Error(err))
	}
	var input consolidatedInput
	if err := json.Unmarshal(data, &input); err != nil {
		logger.Fatal("failed to parse input file", zap.Error(err))
	}

	ctx := context.Background()

	oracle, embedder, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		logger.Fatal("failed to initialize llm client", zap.Error(err))
	}
	if embedder == nil {
		logger.Fatal("configured provider has no embedding support")
	}

	retrier := llm.NewRetrier(cfg.Retry.MaxAttempts, time.Duration(cfg.Retry.BackoffSeconds)*time.Second, logger)

	index := retrieval.NewIndex(embedder, retrier, logger)
	chunks, err := retrieval.LoadCorpus(cfg.Retrieval.CorpusPath)
	if err != nil {
		logger.Fatal("failed to load corpus", zap.Error(err))
	}
	if err := index.Build(ctx, chunks); err != nil {
		logger.Fatal("failed to build retrieval index", zap.Error(err))
	}

	b := bundler.New(oracle, retrier, cfg.Prompts.Bundling, logger)
	a := adjudicate.New(oracle, index, retrier, cfg.Prompts.Scoring, cfg.Retrieval.TopK, logger)
	pipeline := core.NewPipeline(b, a, logger, cfg.Concurrency.Adjudication)

	result, err := pipeline.Assess(ctx, input.DiagnosesByBodyPart)
	if err != nil {
		logger.Fatal("assessment failed", zap.Error(err))
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("failed to serialize result", zap.Error(err))
	}
	fmt.Println(string(out))
}
