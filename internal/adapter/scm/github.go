// Package scm adapts the GitHub REST API to port.SCMProvider.
package scm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dharnesh67/neurohub/internal/domain"
	"github.com/dharnesh67/neurohub/internal/port"
)

const defaultBaseURL = "https://api.github.com"

// GitHubClient implements port.SCMProvider against the GitHub REST API.
type GitHubClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewGitHubClient creates a client. token may be empty for public
// repositories; baseURL may be empty for api.github.com.
func NewGitHubClient(baseURL, token string) *GitHubClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &GitHubClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithToken returns a client authenticating with the given repository access
// token. An empty token returns the receiver unchanged, keeping the global
// token for public repositories.
func (c *GitHubClient) WithToken(token string) port.SCMProvider {
	if token == "" {
		return c
	}
	scoped := *c
	scoped.token = token
	return &scoped
}

// ParseRepoURL extracts owner and repo from a GitHub repository URL.
// Anything that is not an https://github.com/{owner}/{repo} URL is a
// configuration error.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	u, parseErr := url.Parse(repoURL)
	if parseErr != nil {
		return "", "", &port.ConfigurationError{Field: "repo_url", Reason: "not a valid URL"}
	}
	if u.Hostname() != "github.com" {
		return "", "", &port.ConfigurationError{Field: "repo_url", Reason: "must be a github.com URL"}
	}

	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return "", "", &port.ConfigurationError{Field: "repo_url", Reason: "must include owner and repository"}
	}

	owner = parts[0]
	repo = strings.TrimSuffix(parts[1], ".git")
	if owner == "" || repo == "" {
		return "", "", &port.ConfigurationError{Field: "repo_url", Reason: "owner and repository cannot be empty"}
	}
	return owner, repo, nil
}

// ListCommits returns up to limit most recent commits, newest first.
func (c *GitHubClient) ListCommits(ctx context.Context, owner, repo string, limit int) ([]domain.CommitSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	path := fmt.Sprintf("/repos/%s/%s/commits?per_page=%d", owner, repo, limit)

	var raw []struct {
		SHA    string `json:"sha"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string    `json:"name"`
				Date time.Time `json:"date"`
			} `json:"author"`
		} `json:"commit"`
		Author *struct {
			AvatarURL string `json:"avatar_url"`
		} `json:"author"`
	}
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("list commits %s/%s: %w", owner, repo, err)
	}

	commits := make([]domain.CommitSummary, 0, len(raw))
	for _, r := range raw {
		cs := domain.CommitSummary{
			Hash:       r.SHA,
			Message:    r.Commit.Message,
			AuthorName: r.Commit.Author.Name,
			CommitDate: r.Commit.Author.Date,
		}
		if r.Author != nil {
			cs.AuthorAvatar = r.Author.AvatarURL
		}
		commits = append(commits, cs)
	}

	sort.Slice(commits, func(i, j int) bool {
		return commits[i].CommitDate.After(commits[j].CommitDate)
	})
	if len(commits) > limit {
		commits = commits[:limit]
	}
	return commits, nil
}

// GetCommitStats returns the diff statistics for a single commit.
func (c *GitHubClient) GetCommitStats(ctx context.Context, owner, repo, hash string) (domain.CommitStats, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits/%s", owner, repo, hash)

	var raw struct {
		Stats struct {
			Additions int `json:"additions"`
			Deletions int `json:"deletions"`
		} `json:"stats"`
		Files []struct {
			Filename string `json:"filename"`
		} `json:"files"`
	}
	if err := c.get(ctx, path, &raw); err != nil {
		return domain.CommitStats{}, fmt.Errorf("commit stats %s: %w", hash, err)
	}

	stats := domain.CommitStats{
		Additions: raw.Stats.Additions,
		Deletions: raw.Stats.Deletions,
	}
	for _, f := range raw.Files {
		if f.Filename != "" {
			stats.FilesChanged = append(stats.FilesChanged, f.Filename)
		}
	}
	return stats, nil
}

// DefaultBranch returns the repository's default branch name.
func (c *GitHubClient) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	var raw struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), &raw); err != nil {
		return "", fmt.Errorf("get repo %s/%s: %w", owner, repo, err)
	}
	if raw.DefaultBranch == "" {
		return "main", nil
	}
	return raw.DefaultBranch, nil
}

// ListFiles returns all blob paths in the repository tree at ref.
func (c *GitHubClient) ListFiles(ctx context.Context, owner, repo, ref string) ([]string, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", owner, repo, url.PathEscape(ref))

	var raw struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
		} `json:"tree"`
		Truncated bool `json:"truncated"`
	}
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("list tree %s/%s@%s: %w", owner, repo, ref, err)
	}

	var files []string
	for _, entry := range raw.Tree {
		if entry.Type == "blob" {
			files = append(files, entry.Path)
		}
	}
	return files, nil
}

// ReadFile returns the decoded content of a single file at ref.
func (c *GitHubClient) ReadFile(ctx context.Context, owner, repo, ref, filePath string) (string, error) {
	path := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", owner, repo, escapePath(filePath), url.QueryEscape(ref))

	var raw struct {
		Encoding string `json:"encoding"`
		Content  string `json:"content"`
	}
	if err := c.get(ctx, path, &raw); err != nil {
		return "", fmt.Errorf("read file %s: %w", filePath, err)
	}

	if raw.Encoding != "base64" {
		return raw.Content, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(raw.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode file %s: %w", filePath, err)
	}
	return string(decoded), nil
}

// --- internal ---

func (c *GitHubClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &port.ExternalServiceError{Service: "github", Transient: isNetworkTransient(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &port.ExternalServiceError{
			Service:   "github",
			Status:    resp.StatusCode,
			Transient: isStatusTransient(resp.StatusCode),
			Err:       fmt.Errorf("github API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &port.ExternalServiceError{Service: "github", Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// isStatusTransient classifies HTTP statuses: rate limiting and server-side
// failures are retryable, everything else (auth, malformed request, missing
// resource) is not.
func isStatusTransient(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isNetworkTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNRESET)
}

// escapePath percent-encodes each path segment while keeping separators.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
