// internal/provider/github.go
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "github-gitee-mirror/internal/errors"
	"github-gitee-mirror/internal/model"
)

const githubWebURL = "https://github.com"

// GitHub is a Provider backed by the go-github client.
type GitHub struct {
	apiURL     string
	webURL     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Provider = (*GitHub)(nil)

// NewGitHub creates a GitHub provider. An empty apiURL targets api.github.com;
// GitHub Enterprise callers pass their full API root (…/api/v3/).
func NewGitHub(apiURL string, logger *slog.Logger) *GitHub {
	return &GitHub{
		apiURL: apiURL,
		webURL: githubWebURL,
		logger: logger,
	}
}

func (c *GitHub) Platform() model.Platform { return model.PlatformGitHub }

// client builds a go-github client authenticated as token's owner.
func (c *GitHub) client(ctx context.Context, token string) (*github.Client, error) {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	gh := github.NewClient(oauth2.NewClient(ctx, ts))

	if c.apiURL != "" {
		base, err := url.Parse(strings.TrimSuffix(c.apiURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", c.apiURL, err)
		}
		gh.BaseURL = base
	}
	return gh, nil
}

// ListRepositories fetches all repositories of the authenticated user.
// It handles API pagination transparently.
func (c *GitHub) ListRepositories(ctx context.Context, token string) ([]Repository, error) {
	gh, err := c.client(ctx, token)
	if err != nil {
		return nil, err
	}

	var all []Repository
	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Visibility: "all",
		ListOptions: github.ListOptions{
			PerPage: 100, // Max per page
		},
	}

	for {
		c.logger.Debug("Fetching repositories page", "platform", model.PlatformGitHub, "page", opts.Page)

		page, err := retry(ctx, func() (*githubPage, error) {
			repos, resp, err := gh.Repositories.ListByAuthenticatedUser(ctx, opts)
			if err != nil {
				return nil, c.classify(ctx, "list repositories", err)
			}
			return &githubPage{repos: repos, next: resp.NextPage}, nil
		})
		if err != nil {
			return nil, wrapGitHubError("list repositories", err)
		}

		for _, r := range page.repos {
			all = append(all, toRepository(r))
		}

		if page.next == 0 {
			break
		}
		opts.Page = page.next
	}

	return all, nil
}

type githubPage struct {
	repos []*github.Repository
	next  int
}

// EnsureRepository creates ref as a private repository unless it exists.
func (c *GitHub) EnsureRepository(ctx context.Context, token string, ref RepoRef, description string) (bool, error) {
	gh, err := c.client(ctx, token)
	if err != nil {
		return false, err
	}

	exists, err := retry(ctx, func() (bool, error) {
		_, _, err := gh.Repositories.Get(ctx, ref.Namespace, ref.Name)
		if err == nil {
			return true, nil
		}
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, c.classify(ctx, "get repository", err)
	})
	if err != nil {
		return false, wrapGitHubError("get repository", err)
	}
	if exists {
		return false, nil
	}

	// An empty org creates the repository under the authenticated user.
	org := ref.Namespace
	user, _, err := gh.Users.Get(ctx, "")
	if err != nil {
		return false, wrapGitHubError("get authenticated user", err)
	}
	if strings.EqualFold(user.GetLogin(), ref.Namespace) {
		org = ""
	}

	c.logger.Info("Repository not found, creating", "platform", model.PlatformGitHub, "repo", ref.String())
	_, _, err = gh.Repositories.Create(ctx, org, &github.Repository{
		Name:        github.String(ref.Name),
		Private:     github.Bool(true),
		Description: github.String(description),
	})
	if err != nil {
		return false, wrapGitHubError("create repository", err)
	}
	return true, nil
}

func (c *GitHub) AuthenticatedURL(rawURL, token string) (string, error) {
	return InjectToken(rawURL, token)
}

func (c *GitHub) RepositoryURL(ref RepoRef) string {
	return joinURL(c.webURL, ref.Namespace, ref.Name+ArchiveSuffix)
}

// classify decides whether a go-github error is worth another attempt.
// Rate limited calls wait for the reset before being retried.
func (c *GitHub) classify(ctx context.Context, op string, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		c.logger.Warn("GitHub rate limit hit", "op", op, "reset", rateErr.Rate.Reset.Time)
		if !waitUntil(ctx, rateErr.Rate.Reset.Time) {
			return backoff.Permanent(err)
		}
		return err
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		wait := time.Second
		if abuseErr.RetryAfter != nil {
			wait = *abuseErr.RetryAfter
		}
		c.logger.Warn("GitHub secondary rate limit hit", "op", op, "retry_after", wait)
		if !waitUntil(ctx, time.Now().Add(wait)) {
			return backoff.Permanent(err)
		}
		return err
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		if ghErr.Response != nil && ghErr.Response.StatusCode >= http.StatusInternalServerError {
			c.logger.Warn("GitHub server error, retrying", "op", op, "status", ghErr.Response.StatusCode)
			return err
		}
		return backoff.Permanent(err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return backoff.Permanent(err)
	}
	return err
}

func wrapGitHubError(op string, err error) error {
	pErr := &custom_errors.ErrProvider{Platform: string(model.PlatformGitHub), Op: op, Err: err}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		pErr.StatusCode = ghErr.Response.StatusCode
	}
	return pErr
}

// toRepository translates a github.Repository object to our internal Repository.
func toRepository(r *github.Repository) Repository {
	return Repository{
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		HTMLURL:     r.GetHTMLURL(),
		Description: r.Description,
		Private:     r.GetPrivate(),
		CloneURL:    r.GetCloneURL(),
	}
}
