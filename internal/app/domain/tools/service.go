package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/helixlab/helixdash/internal/app/middleware"
	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/app/observability/metrics"
	"github.com/helixlab/helixdash/internal/pkg/backend"
	"github.com/helixlab/helixdash/internal/pkg/cache"
	"github.com/helixlab/helixdash/internal/pkg/config"
)

const (
	resultCacheName = "tool_results"
	inputCacheName  = "tool_inputs"
	// MaxWorkbenchTools bounds one workbench submission.
	MaxWorkbenchTools = 8
)

// RateLimitError is returned when a user submits runs faster than allowed.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error { return models.ErrRateLimited }

// Runner is what the handlers need from the service.
type Runner interface {
	Run(ctx context.Context, user *models.User, tool *models.Tool, in *Input, tokens backend.TokenStore) (*models.Result, error)
	RunMany(ctx context.Context, user *models.User, tools []*models.Tool, in *Input, tokens backend.TokenStore) []Panel
	Lookup(owner, id string) (*models.Result, error)
}

var _ Runner = (*Service)(nil)

// Service runs tools against the backend and keeps their results.
type Service struct {
	client   *backend.Client
	results  *cache.UnifiedCache[*models.Result]
	inputs   *cache.UnifiedCache[string]
	limiter  *middleware.RateLimiter
	parallel int
	maxBytes int64
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewService wires the result caches into caches so the CMS can report and
// clear them.
func NewService(client *backend.Client, cfg config.ToolsConfig, maxUpload int64, limiter *middleware.RateLimiter,
	caches *cache.CacheManager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("tools")
	s := &Service{
		client:   client,
		results:  cache.NewUnifiedCache[*models.Result](cfg.ResultCacheTTL, resultCacheName, logger),
		inputs:   cache.NewUnifiedCache[string](cfg.ResultCacheTTL, inputCacheName, logger),
		limiter:  limiter,
		parallel: max(cfg.WorkbenchParallel, 1),
		maxBytes: maxUpload,
		logger:   logger,
		tracer:   otel.Tracer("helixdash/tools"),
	}
	if caches != nil {
		caches.Register(s.results)
		caches.Register(s.inputs)
	}
	return s
}

// MaxInputBytes is the default size limit for pasted text and uploads.
func (s *Service) MaxInputBytes() int64 { return s.maxBytes }

func (s *Service) inputKey(tool *models.Tool, in *Input) string {
	b := cache.NewCacheKeyBuilder(s.logger).AddTool(tool.Slug).AddParams(in.Params)
	if in.File != nil {
		b.AddContent("file", in.File.Content)
	} else {
		b.AddContent("text", []byte(in.Text))
	}
	return b.BuildOrDefault()
}

// Run submits one input to one tool. Cacheable tools answer repeated inputs
// from the result cache without calling the backend or spending the user's
// rate limit.
func (s *Service) Run(ctx context.Context, user *models.User, tool *models.Tool, in *Input, tokens backend.TokenStore) (*models.Result, error) {
	ctx, span := s.tracer.Start(ctx, "ToolService.Run", trace.WithAttributes(
		attribute.String("tool.slug", tool.Slug),
		attribute.String("user.id", user.ID),
	))
	defer span.End()

	l := s.logger.With(zap.String("tool", tool.Slug), zap.String("userID", user.ID))
	start := time.Now()

	var key string
	if tool.Cacheable {
		key = s.inputKey(tool, in)
		if res, ok := s.cached(user, key); ok {
			metrics.RecordCacheLookup(ctx, resultCacheName, true)
			metrics.RecordToolRun(ctx, tool.Slug, "cached", time.Since(start).Seconds())
			span.SetAttributes(attribute.Bool("cache.hit", true))
			l.Debug("Serving cached result", zap.String("resultID", res.ID))
			return res, nil
		}
		metrics.RecordCacheLookup(ctx, resultCacheName, false)
	}

	if s.limiter != nil {
		if ok, wait := s.limiter.Allow(user.ID); !ok {
			metrics.Get().RateLimitedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", tool.Slug)))
			l.Warn("Tool run rate limited", zap.Duration("retry_after", wait))
			return nil, &RateLimitError{RetryAfter: wait}
		}
	}

	resp, err := s.client.Do(ctx, in.Request(tool), tokens)
	elapsed := time.Since(start)
	if err != nil {
		status := models.StatusFailed
		if errors.Is(err, models.ErrSessionExpired) {
			status = "session_expired"
		}
		metrics.RecordToolRun(ctx, tool.Slug, status, elapsed.Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend call failed")
		l.Warn("Tool run failed", zap.Error(err), zap.Duration("duration", elapsed))
		return nil, fmt.Errorf("run %s: %w", tool.Slug, err)
	}

	res := &models.Result{
		ID:          uuid.NewString(),
		Tool:        tool.Slug,
		Status:      models.StatusOK,
		ContentType: resp.ContentType,
		Body:        resp.Body,
		Duration:    elapsed,
		CachedAt:    time.Now(),
		Input:       in.Summary,
		Sequence:    in.FirstSequence(),
		Owner:       user.ID,
	}
	s.results.Set(res.ID, res)
	if key != "" {
		s.inputs.Set(key, res.ID)
	}

	metrics.RecordToolRun(ctx, tool.Slug, models.StatusOK, elapsed.Seconds())
	span.SetAttributes(attribute.String("result.id", res.ID), attribute.Int("result.bytes", len(res.Body)))
	l.Info("Tool run completed",
		zap.String("resultID", res.ID),
		zap.Int("bytes", len(res.Body)),
		zap.Duration("duration", elapsed))
	return res, nil
}

// cached returns a copy of an earlier result for the same input. Results are
// shared between users only through a fresh copy owned by the caller.
func (s *Service) cached(user *models.User, key string) (*models.Result, bool) {
	id, ok := s.inputs.Get(key)
	if !ok {
		return nil, false
	}
	prev, ok := s.results.Get(id)
	if !ok {
		s.inputs.Delete(key)
		return nil, false
	}
	if prev.Owner == user.ID {
		cp := *prev
		cp.Cached = true
		return &cp, true
	}
	cp := *prev
	cp.ID = uuid.NewString()
	cp.Owner = user.ID
	cp.Cached = true
	s.results.Set(cp.ID, &cp)
	return &cp, true
}

// Lookup returns a stored result. Results of other users are reported as not
// found.
func (s *Service) Lookup(owner, id string) (*models.Result, error) {
	res, ok := s.results.Get(id)
	if !ok || res.Owner != owner {
		return nil, fmt.Errorf("result %s: %w", id, models.ErrNotFound)
	}
	return res, nil
}

// Panel is one tool's outcome in a workbench run.
type Panel struct {
	Tool   *models.Tool
	Result *models.Result
	Err    error
}

// RunMany sends one input to several tools, at most parallel at a time. A
// failing tool only fails its own panel. Panels keep the order of tools.
func (s *Service) RunMany(ctx context.Context, user *models.User, tools []*models.Tool, in *Input, tokens backend.TokenStore) []Panel {
	ctx, span := s.tracer.Start(ctx, "ToolService.RunMany", trace.WithAttributes(
		attribute.Int("tools.count", len(tools)),
		attribute.Int("workers.count", s.parallel),
	))
	defer span.End()

	panels := make([]Panel, len(tools))
	var g errgroup.Group
	g.SetLimit(s.parallel)
	for i, tool := range tools {
		panels[i].Tool = tool
		g.Go(func() error {
			toolInput, err := in.ForTool(tool, s.maxBytes)
			if err != nil {
				panels[i].Err = err
				return nil
			}
			panels[i].Result, panels[i].Err = s.Run(ctx, user, tool, toolInput, tokens)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, p := range panels {
		if p.Err != nil {
			failed++
		}
	}
	span.SetAttributes(attribute.Int("tools.failed", failed))
	s.logger.Info("Workbench run completed",
		zap.String("userID", user.ID),
		zap.Int("tools", len(tools)),
		zap.Int("failed", failed))
	return panels
}
