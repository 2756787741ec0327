package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/diffpilot/internal/ai"
	"github.com/diffpilot/internal/ai/langchain"
	"github.com/diffpilot/internal/config"
	"github.com/diffpilot/internal/logging"
	"github.com/diffpilot/internal/providers"
	"github.com/diffpilot/internal/providers/github"
	"github.com/diffpilot/internal/review"
)

// ReviewCommand returns the review command
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Review a pull request",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Run review without posting comments",
			},
			&cli.BoolFlag{
				Name:  "blocking-only",
				Usage: "Only post findings that block the merge",
			},
			&cli.IntFlag{
				Name:  "max-turns",
				Usage: "Override the turn budget (0 = unlimited)",
				Value: -1,
			},
			&cli.StringFlag{
				Name:    "workdir",
				Aliases: []string{"w"},
				Usage:   "Local checkout of the repository, enables shell tools",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose output for this command",
			},
		},
		ArgsUsage: "PR_URL",
		Action:    runReview,
	}
}

func runReview(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing required argument: PR URL")
	}

	ref, err := providers.ParsePRURL(c.Args().Get(0))
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	plog := logging.NewProcessLogger(c.Bool("verbose"))
	plog.Info().Str("pr", ref.String()).Bool("dry_run", c.Bool("dry-run")).Msg("starting review")

	ctx := context.Background()
	provider, err := createProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	client, err := createAIClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create AI client: %w", err)
	}

	reviewID := uuid.NewString()
	rlog, err := logging.NewReviewLogger(reviewID, cfg.Review.LogDir, plog)
	if err != nil {
		plog.Warn().Err(err).Msg("review log unavailable, continuing without it")
	}
	defer rlog.Close()

	svcConfig := review.Config{
		MaxTurns:      cfg.MaxTurnsPtr(),
		BlockingOnly:  cfg.Review.BlockingOnly || c.Bool("blocking-only"),
		ReviewTimeout: time.Duration(cfg.Review.TimeoutMins) * time.Minute,
		WorkDir:       c.String("workdir"),
		DryRun:        c.Bool("dry-run"),
	}
	if c.Int("max-turns") >= 0 {
		n := c.Int("max-turns")
		if n == 0 {
			svcConfig.MaxTurns = nil
		} else {
			svcConfig.MaxTurns = &n
		}
	}

	svc := review.NewService(provider, client, svcConfig, rlog)
	result := svc.Run(ctx, reviewID, ref)
	if result.Error != nil {
		return result.Error
	}

	fmt.Printf("Review %s complete: %d finding(s), %d comment(s) posted, %d turn(s), %v\n",
		reviewID, len(result.Findings), result.CommentsPosted, result.TurnsUsed, result.Duration.Round(time.Second))
	return nil
}

func createProvider(ctx context.Context, cfg *config.Config) (providers.Provider, error) {
	switch cfg.General.Provider {
	case "github":
		return github.New(ctx, cfg.GitHub.Token, cfg.GitHub.BotLogin)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.General.Provider)
	}
}

func createAIClient(ctx context.Context, cfg *config.Config) (ai.Client, error) {
	factory := ai.NewFactory()
	factory.Register("langchain", langchain.New)

	return factory.Create(ctx, cfg.General.AI, ai.Options{
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
	})
}
