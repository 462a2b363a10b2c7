// internal/provider/gitee.go
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	custom_errors "github-gitee-mirror/internal/errors"
	"github-gitee-mirror/internal/model"
)

const giteePageSize = 100

// Gitee is a Provider backed by the Gitee v5 REST API.
type Gitee struct {
	apiURL     string
	webURL     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Provider = (*Gitee)(nil)

// NewGitee creates a Gitee provider. apiURL is the v5 API root
// (https://gitee.com/api/v5) and webURL the clone host (https://gitee.com).
func NewGitee(apiURL, webURL string, httpClient *http.Client, logger *slog.Logger) *Gitee {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Gitee{
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		webURL:     strings.TrimSuffix(webURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *Gitee) Platform() model.Platform { return model.PlatformGitee }

type giteeRepo struct {
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	HTMLURL     string  `json:"html_url"`
	Description *string `json:"description"`
	Private     bool    `json:"private"`
}

// ListRepositories fetches all repositories of the authenticated user,
// following page numbers until a short page is returned.
func (c *Gitee) ListRepositories(ctx context.Context, token string) ([]Repository, error) {
	var all []Repository
	for page := 1; ; page++ {
		c.logger.Debug("Fetching repositories page", "platform", model.PlatformGitee, "page", page)

		q := url.Values{}
		q.Set("access_token", token)
		q.Set("visibility", "all")
		q.Set("per_page", strconv.Itoa(giteePageSize))
		q.Set("page", strconv.Itoa(page))

		var repos []giteeRepo
		if _, err := c.do(ctx, "list repositories", http.MethodGet, "/user/repos", q, &repos); err != nil {
			return nil, err
		}
		for _, r := range repos {
			all = append(all, Repository{
				Name:        r.Name,
				FullName:    r.FullName,
				HTMLURL:     r.HTMLURL,
				Description: r.Description,
				Private:     r.Private,
				CloneURL:    EnsureGitSuffix(r.HTMLURL),
			})
		}
		if len(repos) < giteePageSize {
			break
		}
	}
	return all, nil
}

// EnsureRepository creates ref as a private repository unless it exists.
func (c *Gitee) EnsureRepository(ctx context.Context, token string, ref RepoRef, description string) (bool, error) {
	q := url.Values{}
	q.Set("access_token", token)

	status, err := c.do(ctx, "get repository", http.MethodGet,
		"/repos/"+url.PathEscape(ref.Namespace)+"/"+url.PathEscape(ref.Name), q, nil)
	if err == nil {
		return false, nil
	}
	if status != http.StatusNotFound {
		return false, err
	}

	c.logger.Info("Repository not found, creating", "platform", model.PlatformGitee, "repo", ref.String())
	form := url.Values{}
	form.Set("access_token", token)
	form.Set("name", ref.Name)
	form.Set("private", "true")
	form.Set("description", description)
	if _, err := c.do(ctx, "create repository", http.MethodPost, "/user/repos", form, nil); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Gitee) AuthenticatedURL(rawURL, token string) (string, error) {
	return InjectToken(rawURL, token)
}

func (c *Gitee) RepositoryURL(ref RepoRef) string {
	return joinURL(c.webURL, ref.Namespace, ref.Name+ArchiveSuffix)
}

// do sends one API call. GET parameters travel in the query string, POST
// parameters as a form body. Only GET is retried on transient failures. A
// non-2xx response is returned as *errors.ErrProvider together with its
// status code.
func (c *Gitee) do(ctx context.Context, op, method, path string, params url.Values, out any) (int, error) {
	idempotent := method == http.MethodGet
	status, err := retry(ctx, func() (int, error) {
		var body io.Reader
		target := c.apiURL + path
		if method == http.MethodGet {
			target += "?" + params.Encode()
		} else {
			body = strings.NewReader(params.Encode())
		}

		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return 0, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// The request URL carries the access token; keep only the cause.
			var urlErr *url.Error
			if errors.As(err, &urlErr) {
				err = urlErr.Err
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return 0, backoff.Permanent(err)
			}
			if !idempotent {
				return 0, backoff.Permanent(err)
			}
			return 0, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out != nil {
				if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
					return resp.StatusCode, backoff.Permanent(fmt.Errorf("decode response: %w", err))
				}
			}
			return resp.StatusCode, nil
		}

		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		apiErr := &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(msg))}
		transient := resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests
		if transient && idempotent {
			c.logger.Warn("Gitee request failed, retrying", "op", op, "status", resp.StatusCode)
			return resp.StatusCode, apiErr
		}
		return resp.StatusCode, backoff.Permanent(apiErr)
	})
	if err != nil {
		pErr := &custom_errors.ErrProvider{Platform: string(model.PlatformGitee), Op: op, Err: err}
		var sErr *statusError
		if errors.As(err, &sErr) {
			pErr.StatusCode = sErr.code
			status = sErr.code
		}
		return status, pErr
	}
	return status, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return http.StatusText(e.code)
	}
	return e.body
}
