// Package github implements the providers.Provider interface against the
// GitHub REST API.
package github

import (
	"context"
	"fmt"
	"strings"

	gogithub "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/diffpilot/internal/providers"
	"github.com/diffpilot/pkg/models"
)

// Provider talks to GitHub on behalf of the review bot.
type Provider struct {
	client   *gogithub.Client
	botLogin string
}

// New builds a GitHub provider from a personal access token. botLogin is the
// account the bot posts as; it is used to recognize our own comments on later
// runs.
func New(ctx context.Context, token, botLogin string) (*Provider, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &Provider{
		client:   gogithub.NewClient(tc),
		botLogin: botLogin,
	}, nil
}

func (p *Provider) Name() string { return "github" }

func (p *Provider) GetPullRequestDetails(ctx context.Context, ref providers.PRRef) (*providers.PullRequestDetails, error) {
	pr, _, err := p.client.PullRequests.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR %s: %w", ref, err)
	}
	return &providers.PullRequestDetails{
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		Author:      pr.GetUser().GetLogin(),
		BaseBranch:  pr.GetBase().GetRef(),
		HeadBranch:  pr.GetHead().GetRef(),
		HeadSHA:     pr.GetHead().GetSHA(),
		State:       pr.GetState(),
		URL:         pr.GetHTMLURL(),
	}, nil
}

func (p *Provider) GetPullRequestDiff(ctx context.Context, ref providers.PRRef) (string, error) {
	diff, _, err := p.client.PullRequests.GetRaw(ctx, ref.Owner, ref.Repo, ref.Number,
		gogithub.RawOptions{Type: gogithub.Diff})
	if err != nil {
		return "", fmt.Errorf("failed to fetch diff for %s: %w", ref, err)
	}
	return diff, nil
}

func (p *Provider) GetFileContent(ctx context.Context, ref providers.PRRef, path string) (string, error) {
	pr, _, err := p.client.PullRequests.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return "", fmt.Errorf("failed to resolve head for %s: %w", ref, err)
	}
	fc, _, _, err := p.client.Repositories.GetContents(ctx, ref.Owner, ref.Repo, path,
		&gogithub.RepositoryContentGetOptions{Ref: pr.GetHead().GetSHA()})
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s at %s: %w", path, pr.GetHead().GetSHA(), err)
	}
	if fc == nil {
		return "", fmt.Errorf("%s is a directory, not a file", path)
	}
	content, err := fc.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return content, nil
}

func (p *Provider) ListBotComments(ctx context.Context, ref providers.PRRef) ([]models.PostedComment, error) {
	var out []models.PostedComment
	opts := &gogithub.PullRequestListCommentsOptions{
		ListOptions: gogithub.ListOptions{PerPage: 100},
	}
	for {
		comments, resp, err := p.client.PullRequests.ListComments(ctx, ref.Owner, ref.Repo, ref.Number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments on %s: %w", ref, err)
		}
		for _, c := range comments {
			if p.botLogin != "" && !strings.EqualFold(c.GetUser().GetLogin(), p.botLogin) {
				continue
			}
			out = append(out, models.PostedComment{
				ID:       fmt.Sprintf("%d", c.GetID()),
				FilePath: c.GetPath(),
				Line:     c.GetLine(),
				Body:     c.GetBody(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (p *Provider) PostFindingComment(ctx context.Context, ref providers.PRRef, finding models.Finding) (*models.PostedComment, error) {
	if finding.Line == nil {
		return nil, fmt.Errorf("finding for %s has no resolved line", finding.FilePath)
	}
	pr, _, err := p.client.PullRequests.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve head for %s: %w", ref, err)
	}

	body := formatFindingBody(finding)
	comment := &gogithub.PullRequestComment{
		Body:     gogithub.Ptr(body),
		Path:     gogithub.Ptr(finding.FilePath),
		Line:     finding.Line,
		Side:     gogithub.Ptr("RIGHT"),
		CommitID: gogithub.Ptr(pr.GetHead().GetSHA()),
	}
	created, _, err := p.client.PullRequests.CreateComment(ctx, ref.Owner, ref.Repo, ref.Number, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to post comment on %s:%d: %w", finding.FilePath, *finding.Line, err)
	}
	return &models.PostedComment{
		ID:       fmt.Sprintf("%d", created.GetID()),
		FilePath: finding.FilePath,
		Line:     *finding.Line,
		Body:     body,
	}, nil
}

func (p *Provider) PostSummaryComment(ctx context.Context, ref providers.PRRef, body string) error {
	_, _, err := p.client.Issues.CreateComment(ctx, ref.Owner, ref.Repo, ref.Number,
		&gogithub.IssueComment{Body: gogithub.Ptr(body)})
	if err != nil {
		return fmt.Errorf("failed to post summary on %s: %w", ref, err)
	}
	return nil
}

func (p *Provider) AcknowledgeResolved(ctx context.Context, ref providers.PRRef, rc models.ResolvedComment) error {
	var commentID int64
	if _, err := fmt.Sscanf(rc.CommentID, "%d", &commentID); err != nil {
		// The model referenced the comment by position rather than ID;
		// there is nothing to reply to.
		return nil
	}
	body := fmt.Sprintf("✅ Resolved: %s", rc.Reason)
	_, _, err := p.client.PullRequests.CreateCommentInReplyTo(ctx, ref.Owner, ref.Repo, ref.Number, body, commentID)
	if err != nil {
		return fmt.Errorf("failed to reply to comment %d: %w", commentID, err)
	}
	return nil
}

func (p *Provider) SubmitReview(ctx context.Context, ref providers.PRRef, decision models.Decision, body string) error {
	review := &gogithub.PullRequestReviewRequest{
		Body:  gogithub.Ptr(body),
		Event: gogithub.Ptr(string(decision.Recommendation)),
	}
	_, _, err := p.client.PullRequests.CreateReview(ctx, ref.Owner, ref.Repo, ref.Number, review)
	if err != nil {
		return fmt.Errorf("failed to submit review on %s: %w", ref, err)
	}
	return nil
}

// formatFindingBody renders a finding as a Markdown review comment.
func formatFindingBody(f models.Finding) string {
	var b strings.Builder
	if f.Severity != "" {
		fmt.Fprintf(&b, "**[%s]** %s", strings.ToUpper(string(f.Severity)), f.Message)
	} else {
		b.WriteString(f.Message)
	}
	if f.Suggestion != "" {
		b.WriteString("\n\n```suggestion\n")
		b.WriteString(f.Suggestion)
		if !strings.HasSuffix(f.Suggestion, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```")
	}
	return b.String()
}
