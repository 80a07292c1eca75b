package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"redline/internal/logging"
)

// GitHub implements Store over the GitHub contents API. The version
// tag is the blob sha the API returns with every fetch and demands
// back on writes and deletes.
type GitHub struct {
	owner      string
	repo       string
	branch     string
	token      string
	baseURL    string
	httpClient *http.Client
}

// GitHubConfig configures a GitHub store.
type GitHubConfig struct {
	Owner   string
	Repo    string
	Branch  string
	Token   string
	BaseURL string // override for tests and GitHub Enterprise
	Timeout time.Duration
}

// NewGitHub creates a GitHub-backed store.
func NewGitHub(cfg GitHubConfig) *GitHub {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &GitHub{
		owner:      cfg.Owner,
		repo:       cfg.Repo,
		branch:     branch,
		token:      cfg.Token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
}

type commitResponse struct {
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type treeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

// Get fetches path at the configured branch.
func (g *GitHub) Get(ctx context.Context, path string) (*File, error) {
	timer := logging.StartTimer(logging.CategoryStore, "github.Get "+path)
	defer timer.Stop()

	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		g.baseURL, g.owner, g.repo, escapePath(path), url.QueryEscape(g.branch))

	body, status, err := g.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("get %s: %w", path, ErrNotFound)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %d: %s", path, status, truncateBody(body))
	}

	var resp contentsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("get %s: decode response: %w", path, err)
	}

	content := resp.Content
	if resp.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("get %s: decode content: %w", path, err)
		}
		content = string(decoded)
	}

	return &File{Path: path, Content: content, SHA: resp.SHA}, nil
}

// Put writes content to path. An empty sha creates; otherwise the sha
// is the update precondition.
func (g *GitHub) Put(ctx context.Context, path, content, sha string) (string, error) {
	timer := logging.StartTimer(logging.CategoryStore, "github.Put "+path)
	defer timer.Stop()

	payload := map[string]interface{}{
		"message": commitMessage("update", path, sha == ""),
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  g.branch,
	}
	if sha != "" {
		payload["sha"] = sha
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		g.baseURL, g.owner, g.repo, escapePath(path))

	body, status, err := g.do(ctx, http.MethodPut, endpoint, payload)
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return "", fmt.Errorf("put %s: %w", path, ErrVersionConflict)
	default:
		return "", fmt.Errorf("put %s: unexpected status %d: %s", path, status, truncateBody(body))
	}

	var resp commitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("put %s: decode response: %w", path, err)
	}
	return resp.Commit.SHA, nil
}

// Delete removes path, preconditioned on sha.
func (g *GitHub) Delete(ctx context.Context, path, sha string) (string, error) {
	timer := logging.StartTimer(logging.CategoryStore, "github.Delete "+path)
	defer timer.Stop()

	payload := map[string]interface{}{
		"message": commitMessage("delete", path, false),
		"sha":     sha,
		"branch":  g.branch,
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		g.baseURL, g.owner, g.repo, escapePath(path))

	body, status, err := g.do(ctx, http.MethodDelete, endpoint, payload)
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fmt.Errorf("delete %s: %w", path, ErrNotFound)
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return "", fmt.Errorf("delete %s: %w", path, ErrVersionConflict)
	default:
		return "", fmt.Errorf("delete %s: unexpected status %d: %s", path, status, truncateBody(body))
	}

	var resp commitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("delete %s: decode response: %w", path, err)
	}
	return resp.Commit.SHA, nil
}

// List returns every blob path on the configured branch.
func (g *GitHub) List(ctx context.Context) ([]string, error) {
	timer := logging.StartTimer(logging.CategoryStore, "github.List")
	defer timer.Stop()

	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1",
		g.baseURL, g.owner, g.repo, url.PathEscape(g.branch))

	body, status, err := g.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("list: %w", ErrNotFound)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list: unexpected status %d: %s", status, truncateBody(body))
	}

	var resp treeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("list: decode response: %w", err)
	}
	if resp.Truncated {
		logging.Store("tree listing truncated by the API; file list is partial")
	}

	var paths []string
	for _, node := range resp.Tree {
		if node.Type == "blob" {
			paths = append(paths, node.Path)
		}
	}
	return paths, nil
}

// do issues one API request and returns the body and status. Network
// errors are returned as-is; HTTP error statuses are the caller's to
// interpret.
func (g *GitHub) do(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	logging.StoreDebug("%s %s -> %d", method, endpoint, resp.StatusCode)
	return body, resp.StatusCode, nil
}

func commitMessage(verb, path string, created bool) string {
	if verb == "update" && created {
		return fmt.Sprintf("redline: create %s", path)
	}
	return fmt.Sprintf("redline: %s %s", verb, path)
}

// escapePath escapes each path segment but keeps the separators.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func truncateBody(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
