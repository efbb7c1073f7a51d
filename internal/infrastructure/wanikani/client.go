package wanikani

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/infrastructure/config"
)

const (
	defaultBaseURL  = "https://api.wanikani.com/v2"
	defaultRevision = "20170710"
	maxErrorBody    = 512
	probeTimeout    = 3 * time.Second
)

// Client issues authenticated requests against the WaniKani v2 API.
type Client struct {
	baseURL  *url.URL
	revision string
	doer     HTTPDoer

	mu    sync.RWMutex
	token string
}

type Option func(*clientOptions)

type clientOptions struct {
	doer   HTTPDoer
	logger logrus.FieldLogger
}

// WithHTTPDoer replaces the underlying HTTP client.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(o *clientOptions) {
		if doer != nil {
			o.doer = doer
		}
	}
}

// WithLogger logs every request through logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// NewClient constructs a client from the remote section of cfg.
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	raw := strings.TrimSpace(cfg.Remote.BaseURL)
	if raw == "" {
		raw = defaultBaseURL
	}
	base, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse remote base url: %w", err)
	}
	revision := strings.TrimSpace(cfg.Remote.Revision)
	if revision == "" {
		revision = defaultRevision
	}

	timeout := cfg.Remote.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	o := clientOptions{doer: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(&o)
	}
	doer := o.doer
	if o.logger != nil {
		doer = &loggingDoer{next: doer, logger: o.logger}
	}

	return &Client{baseURL: base, revision: revision, doer: doer}, nil
}

// SetToken establishes the bearer credential used by every later request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// HasToken reports whether a credential is set.
func (c *Client) HasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

func (c *Client) GetUser(ctx context.Context) (*Resource[UserData], error) {
	var out Resource[UserData]
	if err := c.do(ctx, http.MethodGet, c.endpoint("user", nil), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSubjectsUpdatedAfter returns the first page of subjects changed after the given time.
// A nil after fetches everything.
func (c *Client) GetSubjectsUpdatedAfter(ctx context.Context, after *time.Time) (*Collection[SubjectData], error) {
	return Request[SubjectData](ctx, c, c.endpoint("subjects", updatedAfter(after)))
}

func (c *Client) GetAssignmentsUpdatedAfter(ctx context.Context, after *time.Time) (*Collection[AssignmentData], error) {
	return Request[AssignmentData](ctx, c, c.endpoint("assignments", updatedAfter(after)))
}

func (c *Client) GetStudyMaterialsUpdatedAfter(ctx context.Context, after *time.Time) (*Collection[StudyMaterialData], error) {
	return Request[StudyMaterialData](ctx, c, c.endpoint("study_materials", updatedAfter(after)))
}

// Request fetches one page of a collection from an absolute URL, typically a next_url cursor.
func Request[T any](ctx context.Context, c *Client, pageURL string) (*Collection[T], error) {
	var out Collection[T]
	if err := c.do(ctx, http.MethodGet, pageURL, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateReview submits one review for an assignment.
func (c *Client) CreateReview(ctx context.Context, assignmentID int64, meaningIncorrect, readingIncorrect int) error {
	body := reviewRequest{Review: reviewPayload{
		AssignmentID:            assignmentID,
		IncorrectMeaningAnswers: meaningIncorrect,
		IncorrectReadingAnswers: readingIncorrect,
	}}
	return c.do(ctx, http.MethodPost, c.endpoint("reviews", nil), body, nil)
}

// StartAssignment moves an assignment out of the lesson queue.
func (c *Client) StartAssignment(ctx context.Context, assignmentID int64) error {
	path := "assignments/" + strconv.FormatInt(assignmentID, 10) + "/start"
	return c.do(ctx, http.MethodPut, c.endpoint(path, nil), startAssignmentRequest{}, nil)
}

// Online probes the API host. Any HTTP response counts as reachable.
func (c *Client) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String(), nil)
	if err != nil {
		return false
	}
	resp, err := c.doer.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func updatedAfter(after *time.Time) url.Values {
	if after == nil || after.IsZero() {
		return nil
	}
	return url.Values{"updated_after": []string{after.UTC().Format(time.RFC3339Nano)}}
}

func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token == "" {
		return entity.ErrNoToken
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Wanikani-Revision", c.revision)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       req.URL.Path,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
