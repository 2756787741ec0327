package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/diffpilot/internal/config"
	"github.com/diffpilot/internal/logging"
	"github.com/diffpilot/internal/providers"
	"github.com/diffpilot/internal/review"
)

// SummarizeCommand returns the summarize command
func SummarizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "summarize",
		Usage:     "Summarize a pull request diff without reviewing it",
		ArgsUsage: "PR_URL",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose output for this command",
			},
		},
		Action: runSummarize,
	}
}

func runSummarize(c *cli.Context) error {
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

	ctx := context.Background()
	provider, err := createProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	client, err := createAIClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create AI client: %w", err)
	}

	svc := review.NewService(provider, client, review.Config{
		ReviewTimeout: time.Duration(cfg.Review.TimeoutMins) * time.Minute,
	}, nil)

	plog.Info().Str("pr", ref.String()).Msg("summarizing diff")
	summary, err := svc.Summarize(ctx, ref)
	if err != nil {
		return err
	}

	if summary.Classification != "" {
		fmt.Printf("Change type: %s\n\n", summary.Classification)
	}
	for _, point := range summary.Overview {
		fmt.Printf("- %s\n", point)
	}
	for _, risk := range summary.Risks {
		fmt.Printf("- [%s] %s\n", risk.Tag, risk.Description)
	}
	for _, hunk := range summary.Hunks {
		fmt.Printf("\n%s: %s\n", hunk.FilePath, hunk.Overview)
		for _, test := range hunk.SuggestedTests {
			fmt.Printf("  test: %s\n", test)
		}
	}
	fmt.Printf("\nRecommendation: %s", summary.Decision.Recommendation)
	if summary.Decision.Reasoning != "" {
		fmt.Printf(" (%s)", summary.Decision.Reasoning)
	}
	fmt.Println()
	return nil
}
