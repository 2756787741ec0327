// Package review orchestrates a full pull-request review: diff retrieval,
// summarization, the bounded agentic review loop, and result posting.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/diffpilot/internal/ai"
	"github.com/diffpilot/internal/diffindex"
	"github.com/diffpilot/internal/diffstat"
	"github.com/diffpilot/internal/logging"
	"github.com/diffpilot/internal/prompts"
	"github.com/diffpilot/internal/providers"
	"github.com/diffpilot/internal/respparse"
	"github.com/diffpilot/internal/retry"
	"github.com/diffpilot/internal/reviewstate"
	"github.com/diffpilot/internal/tools"
	"github.com/diffpilot/pkg/models"
)

// Config controls one review run.
type Config struct {
	// MaxTurns caps the agent loop; nil means unlimited.
	MaxTurns *int

	// BlockingOnly suppresses findings below severity "required".
	BlockingOnly bool

	// ReviewTimeout bounds the whole run.
	ReviewTimeout time.Duration

	// WorkDir is a local checkout of the repository, used by the shell and
	// dependency-graph tools. Empty disables those tools.
	WorkDir string

	// DryRun parses and resolves but posts nothing.
	DryRun bool
}

// Result is the outcome of one review run.
type Result struct {
	ReviewID       string
	Success        bool
	Summary        *models.DiffSummary
	Findings       []models.Finding
	Resolved       []models.ResolvedComment
	CommentsPosted int
	TurnsUsed      int
	Duration       time.Duration
	Error          error
}

// Service runs reviews against one provider/model pair.
type Service struct {
	provider providers.Provider
	client   ai.Client
	config   Config
	logger   *logging.ReviewLogger
}

func NewService(provider providers.Provider, client ai.Client, config Config, logger *logging.ReviewLogger) *Service {
	if config.ReviewTimeout <= 0 {
		config.ReviewTimeout = 15 * time.Minute
	}
	return &Service{
		provider: provider,
		client:   client,
		config:   config,
		logger:   logger,
	}
}

// Run executes the full review workflow for one pull request.
func (s *Service) Run(ctx context.Context, reviewID string, ref providers.PRRef) *Result {
	start := time.Now()
	result := &Result{ReviewID: reviewID}

	ctx, cancel := context.WithTimeout(ctx, s.config.ReviewTimeout)
	defer cancel()

	s.logger.LogSection("REVIEW START")
	s.logger.Log("Review %s for %s via %s", reviewID, ref, s.provider.Name())

	details, err := s.provider.GetPullRequestDetails(ctx, ref)
	if err != nil {
		return s.fail(result, start, fmt.Errorf("failed to fetch PR details: %w", err))
	}
	s.logger.Log("PR: %q by %s (%s -> %s)", details.Title, details.Author, details.HeadBranch, details.BaseBranch)

	var diff string
	fetchRes := retry.RetryWithBackoff(ctx, retry.DefaultRetryConfig(), func() error {
		var err error
		diff, err = s.provider.GetPullRequestDiff(ctx, ref)
		return err
	}, s.logger)
	if !fetchRes.Success {
		return s.fail(result, start, fmt.Errorf("failed to fetch diff: %w", fetchRes.LastError))
	}
	if diff == "" {
		return s.fail(result, start, fmt.Errorf("pull request %s has an empty diff", ref))
	}

	stats, err := diffstat.Compute(diff)
	if err != nil {
		s.logger.LogError("diff stats", err)
		stats = nil
	} else {
		s.logger.Log("Diff: %s", stats.Summary())
	}

	chunks := diffindex.Split(diff)
	if len(chunks) == 0 {
		return s.fail(result, start, fmt.Errorf("no reviewable hunks in %s", ref))
	}
	s.logger.Log("Split diff into %d chunks", len(chunks))

	prior, err := s.provider.ListBotComments(ctx, ref)
	if err != nil {
		s.logger.LogError("listing prior comments", err)
		prior = nil
	}
	s.logger.Log("Found %d prior bot comments", len(prior))

	s.logger.LogSection("SUMMARIZATION PASS")
	summary, err := s.summarize(ctx, diff, stats)
	if err != nil {
		// The review pass works without summary context.
		s.logger.LogError("summarization", err)
	} else {
		result.Summary = summary
		s.logger.Log("Classification: %s, %d overview points, %d risks",
			summary.Classification, len(summary.Overview), len(summary.Risks))
	}

	s.logger.LogSection("REVIEW LOOP")
	state := reviewstate.New(s.config.MaxTurns, prior)
	registry := s.buildRegistry(ref)

	loop := &loopRunner{
		service:  s,
		state:    state,
		registry: registry,
		ref:      ref,
		diff:     diff,
	}
	if err := loop.run(ctx, chunks, stats, result); err != nil {
		return s.fail(result, start, err)
	}

	if !s.config.DryRun {
		s.logger.LogSection("FINAL SUBMISSION")
		if err := s.submit(ctx, ref, result); err != nil {
			return s.fail(result, start, err)
		}
		state.MarkSubmittedReview()
	}

	result.Success = true
	result.TurnsUsed = state.Progress().TurnsUsed
	result.Duration = time.Since(start)
	s.logger.Log("Review complete: %d findings, %d posted, %d resolved, %d turns, %v",
		len(result.Findings), result.CommentsPosted, len(result.Resolved), result.TurnsUsed, result.Duration)
	return result
}

// Summarize runs only the summarization pass, without the review loop. Used
// by the summarize command.
func (s *Service) Summarize(ctx context.Context, ref providers.PRRef) (*models.DiffSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.ReviewTimeout)
	defer cancel()

	diff, err := s.provider.GetPullRequestDiff(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch diff: %w", err)
	}
	stats, err := diffstat.Compute(diff)
	if err != nil {
		stats = nil
	}
	return s.summarize(ctx, diff, stats)
}

func (s *Service) summarize(ctx context.Context, diff string, stats *diffstat.Stats) (*models.DiffSummary, error) {
	messages := []ai.Message{
		{Role: ai.RoleSystem, Text: prompts.SummarySystemPrompt},
		{Role: ai.RoleUser, Text: prompts.SummaryPrompt(diff, stats)},
	}

	var turn *ai.TurnResult
	res := retry.RetryWithBackoff(ctx, retry.LLMRetryConfig(), func() error {
		var err error
		turn, err = s.client.GenerateTurn(ctx, messages, nil)
		return err
	}, s.logger)
	if !res.Success {
		return nil, fmt.Errorf("summarization pass failed after %d attempts: %w", res.Attempts, res.LastError)
	}

	summary := respparse.ParseSummary(turn.Text)
	return &summary, nil
}

func (s *Service) buildRegistry(ref providers.PRRef) *tools.Registry {
	registry := tools.NewRegistry(
		tools.NewFetchFileTool(s.provider, ref),
		tools.NewPriorCommentsTool(s.provider, ref),
		tools.NewWebSearchTool(),
	)
	if s.config.WorkDir != "" {
		registry.Register(tools.NewShellTool(s.config.WorkDir))
		registry.Register(tools.NewDepGraphTool(s.config.WorkDir))
	}
	return registry
}

// submit posts the summary comment and files the review decision.
func (s *Service) submit(ctx context.Context, ref providers.PRRef, result *Result) error {
	body := formatSummaryBody(result)
	if err := s.provider.PostSummaryComment(ctx, ref, body); err != nil {
		return fmt.Errorf("failed to post summary comment: %w", err)
	}

	decision := models.Decision{Recommendation: models.RecommendComment}
	if result.Summary != nil && result.Summary.Decision.Recommendation != "" {
		decision = result.Summary.Decision
	}
	// Approving our own review of someone else's PR is fine; requesting
	// changes needs at least one blocking finding to point at.
	if decision.Recommendation == models.RecommendRequestChanges && !hasBlocking(result.Findings) {
		decision.Recommendation = models.RecommendComment
	}

	if err := s.provider.SubmitReview(ctx, ref, decision, decision.Reasoning); err != nil {
		return fmt.Errorf("failed to submit review: %w", err)
	}
	s.logger.Log("Submitted review: %s", decision.Recommendation)
	return nil
}

func (s *Service) fail(result *Result, start time.Time, err error) *Result {
	s.logger.LogError("review", err)
	result.Error = err
	result.Duration = time.Since(start)
	return result
}

func hasBlocking(findings []models.Finding) bool {
	for _, f := range findings {
		if f.Severity.IsBlocking() {
			return true
		}
	}
	return false
}
