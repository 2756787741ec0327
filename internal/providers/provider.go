// Package providers defines the code-hosting side of a review: fetching the
// PR diff and metadata, and posting the results back.
package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/diffpilot/pkg/models"
)

// Provider represents a code hosting provider.
type Provider interface {
	// GetPullRequestDetails resolves a PR reference to its metadata.
	GetPullRequestDetails(ctx context.Context, ref PRRef) (*PullRequestDetails, error)

	// GetPullRequestDiff returns the PR's unified diff text.
	GetPullRequestDiff(ctx context.Context, ref PRRef) (string, error)

	// GetFileContent fetches a file from the PR's head revision.
	GetFileContent(ctx context.Context, ref PRRef, path string) (string, error)

	// ListBotComments returns the review comments this bot posted on the PR
	// in earlier runs.
	ListBotComments(ctx context.Context, ref PRRef) ([]models.PostedComment, error)

	// PostFindingComment posts a positioned review comment for a resolved
	// finding. Findings with a nil line are rejected, never posted at a
	// guessed position.
	PostFindingComment(ctx context.Context, ref PRRef, finding models.Finding) (*models.PostedComment, error)

	// PostSummaryComment posts a PR-level (non-positioned) comment.
	PostSummaryComment(ctx context.Context, ref PRRef, body string) error

	// AcknowledgeResolved replies to a previously posted comment that the
	// model reported as addressed.
	AcknowledgeResolved(ctx context.Context, ref PRRef, rc models.ResolvedComment) error

	// SubmitReview files the formal review decision.
	SubmitReview(ctx context.Context, ref PRRef, decision models.Decision, body string) error

	Name() string
}

// PRRef identifies one pull request.
type PRRef struct {
	Owner  string
	Repo   string
	Number int
}

func (r PRRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// PullRequestDetails contains pull request metadata.
type PullRequestDetails struct {
	Title       string
	Description string
	Author      string
	BaseBranch  string
	HeadBranch  string
	HeadSHA     string
	State       string
	URL         string
}

// ParsePRURL parses a GitHub-style pull request URL, e.g.
// https://github.com/owner/repo/pull/123.
func ParsePRURL(raw string) (PRRef, error) {
	var ref PRRef

	u, err := url.Parse(raw)
	if err != nil {
		return ref, fmt.Errorf("invalid PR URL %q: %w", raw, err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[2] != "pull" {
		return ref, fmt.Errorf("not a pull request URL: %s", raw)
	}

	number, err := strconv.Atoi(parts[3])
	if err != nil {
		return ref, fmt.Errorf("invalid PR number in %q: %w", raw, err)
	}

	ref.Owner = parts[0]
	ref.Repo = parts[1]
	ref.Number = number
	return ref, nil
}
