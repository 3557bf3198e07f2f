package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/claimhands/verdict/internal/config"
	"github.com/claimhands/verdict/internal/core"
	"github.com/claimhands/verdict/internal/core/adjudicate"
	"github.com/claimhands/verdict/internal/core/bundler"
	"github.com/claimhands/verdict/internal/core/model"
	"github.com/claimhands/verdict/internal/core/retrieval"
	"github.com/claimhands/verdict/internal/llm"
	"github.com/claimhands/verdict/internal/store"
)

type Server struct {
	Pipeline *core.Pipeline
	Index    *retrieval.Index
	Audit    *store.AuditStore
	Logger   *zap.Logger
	topK     int
}

// New wires the whole service: oracle clients, retrieval index built once
// from the corpus file, pipeline, and the optional audit store.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	oracle, embedder, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}
	if embedder == nil {
		return nil, fmt.Errorf("provider %q has no embedding support; the retrieval index requires one", cfg.LLM.Provider)
	}

	retrier := llm.NewRetrier(cfg.Retry.MaxAttempts, time.Duration(cfg.Retry.BackoffSeconds)*time.Second, logger)

	index := retrieval.NewIndex(embedder, retrier, logger)
	chunks, err := retrieval.LoadCorpus(cfg.Retrieval.CorpusPath)
	if err != nil {
		return nil, err
	}
	if err := index.Build(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to build retrieval index: %w", err)
	}

	b := bundler.New(oracle, retrier, cfg.Prompts.Bundling, logger)
	a := adjudicate.New(oracle, index, retrier, cfg.Prompts.Scoring, cfg.Retrieval.TopK, logger)
	pipeline := core.NewPipeline(b, a, logger, cfg.Concurrency.Adjudication)

	var audit *store.AuditStore
	if cfg.Audit.URI != "" {
		driver, err := store.NewMemgraphDriver(cfg.Audit.URI, cfg.Audit.User, cfg.Audit.Password, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to audit store: %w", err)
		}
		if err := driver.BuildIndices(ctx); err != nil {
			return nil, err
		}
		audit = store.NewAuditStore(driver, logger)
	}

	return &Server{
		Pipeline: pipeline,
		Index:    index,
		Audit:    audit,
		Logger:   logger,
		topK:     cfg.Retrieval.TopK,
	}, nil
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.Health)
	r.POST("/assess", s.Assess)
	r.POST("/corpus/search", s.SearchCorpus)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type AssessRequest struct {
	DiagnosesByBodyPart model.RawDiagnoses `json:"diagnoses_by_body_part"`
}

func (s *Server) Assess(c *gin.Context) {
	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	runID := uuid.New().String()
	result, err := s.Pipeline.Assess(c.Request.Context(), req.DiagnosesByBodyPart)
	if err != nil {
		// Surface the original failure text verbatim; nothing is persisted.
		s.Logger.Error("assessment run failed", zap.String("run_id", runID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"run_id": runID, "error": err.Error()})
		return
	}

	if s.Audit != nil {
		if err := s.Audit.SaveRun(c.Request.Context(), runID, result); err != nil {
			s.Logger.Error("failed to persist assessment run", zap.String("run_id", runID), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"run_id": runID, "result": result})
}

type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// SearchCorpus exposes the retrieval index directly, useful for inspecting
// which clauses ground a given piece of evidence.
func (s *Server) SearchCorpus(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	k := req.K
	if k <= 0 {
		k = s.topK
	}

	matches, err := s.Index.Query(c.Request.Context(), req.Query, k)
	if err != nil {
		s.Logger.Error("corpus search failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	results := make([]gin.H, 0, len(matches))
	for _, m := range matches {
		results = append(results, gin.H{
			"text":       m.Chunk.Text,
			"identifier": m.Chunk.Identifier,
			"title":      m.Chunk.Title,
			"distance":   m.Distance,
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
