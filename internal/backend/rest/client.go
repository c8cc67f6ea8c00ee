// Package rest implements the campus server API over HTTP/JSON.
package rest

import (
	"bytes"
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

	"github.com/kwhalen/slate/internal/domain"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultMaxTries      = 3
	defaultRetryInterval = 500 * time.Millisecond
	apiPrefix            = "/api/v1"
	userAgent            = "slate/1.0"
)

// Client talks to a campus server. Reads retry transient failures with
// exponential backoff; writes are attempted exactly once. The bearer
// token scopes every request server-side, so the Scope argument on the
// repository methods is never sent over the wire.
type Client struct {
	baseURL       string
	token         string
	httpClient    *http.Client
	maxTries      uint
	retryInterval time.Duration
	logger        *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithMaxTries caps how many times a read is attempted
func WithMaxTries(n uint) Option {
	return func(c *Client) { c.maxTries = n }
}

// WithRetryInterval sets the first retry delay for reads
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

// NewClient creates a campus API client for the given server
func NewClient(baseURL, token string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		maxTries:      defaultMaxTries,
		retryInterval: defaultRetryInterval,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) FetchCourses(ctx context.Context, _ domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
	return fetchPage(ctx, c, "/courses", pageValues(q, ""), toCourse)
}

func (c *Client) FetchAssignments(ctx context.Context, _ domain.Scope, q domain.PageQuery) ([]domain.Assignment, error) {
	return fetchPage(ctx, c, "/assignments", pageValues(q, "course"), toAssignment)
}

func (c *Client) FetchGrades(ctx context.Context, _ domain.Scope, q domain.PageQuery) ([]domain.Grade, error) {
	return fetchPage(ctx, c, "/grades", pageValues(q, "assignment"), toGrade)
}

func (c *Client) FetchConversations(ctx context.Context, _ domain.Scope, q domain.PageQuery) ([]domain.Conversation, error) {
	return fetchPage(ctx, c, "/conversations", pageValues(q, ""), toConversation)
}

func (c *Client) FetchUsers(ctx context.Context, _ domain.Scope, q domain.PageQuery) ([]domain.User, error) {
	return fetchPage(ctx, c, "/users", pageValues(q, "course"), toUser)
}

// CurrentSession resolves the account behind the configured token
func (c *Client) CurrentSession(ctx context.Context) (domain.Session, error) {
	body, err := c.getWithRetry(ctx, "/me", nil)
	if err != nil {
		return domain.Session{}, err
	}
	var d sessionDTO
	if err := json.Unmarshal(body, &d); err != nil {
		return domain.Session{}, fmt.Errorf("decoding session: %w", err)
	}
	s := toSession(d)
	if s.UserID == "" || !s.Role.Valid() {
		return domain.Session{}, fmt.Errorf("%w: malformed session", domain.ErrAuthExpired)
	}
	return s, nil
}

// SubmitGrade posts one score and returns the server's copy
func (c *Client) SubmitGrade(ctx context.Context, _ domain.Scope, sub domain.GradeSubmission) (domain.Grade, error) {
	payload := gradePostDTO{
		AssignmentID: sub.AssignmentID,
		StudentID:    sub.StudentID,
		Score:        sub.Score,
		MaxScore:     sub.MaxScore,
		Comment:      sub.Comment,
	}
	body, err := c.doPost(ctx, "/grades", payload)
	if err != nil {
		return domain.Grade{}, err
	}
	var d gradeDTO
	if err := json.Unmarshal(body, &d); err != nil {
		return domain.Grade{}, fmt.Errorf("decoding grade response: %w", err)
	}
	return toGrade(d), nil
}

// SendMessage appends one message and returns the server's copy
func (c *Client) SendMessage(ctx context.Context, _ domain.Scope, conversationID string, msg domain.Message) (domain.Message, error) {
	payload := messagePostDTO{ClientID: msg.ID, Body: msg.Body}
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	body, err := c.doPost(ctx, path, payload)
	if err != nil {
		return domain.Message{}, err
	}
	var d messageDTO
	if err := json.Unmarshal(body, &d); err != nil {
		return domain.Message{}, fmt.Errorf("decoding message response: %w", err)
	}
	return toMessage(d), nil
}

func fetchPage[D, T any](ctx context.Context, c *Client, path string, query url.Values, f func(D) T) ([]T, error) {
	body, err := c.getWithRetry(ctx, path, query)
	if err != nil {
		return nil, err
	}
	var env pageEnvelope[D]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding %s page: %w", path, err)
	}
	return mapSlice(env.Items, f), nil
}

// pageValues encodes a PageQuery. filterParam names the parameter the
// endpoint uses for its parent filter; empty means the endpoint has none.
func pageValues(q domain.PageQuery, filterParam string) url.Values {
	v := url.Values{}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Filter != "" && filterParam != "" {
		v.Set(filterParam, q.Filter)
	}
	return v
}

func (c *Client) getWithRetry(ctx context.Context, path string, query url.Values) ([]byte, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.retryInterval

	operation := func() ([]byte, error) {
		data, err := c.do(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			if retryable(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return data, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(c.maxTries),
	)
}

// retryable reports whether another attempt could succeed
func retryable(err error) bool {
	return errors.Is(err, domain.ErrServerOffline)
}

func (c *Client) doPost(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, nil, bytes.NewReader(body))
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader) ([]byte, error) {
	u := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("campus request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return data, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrAuthExpired
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, apiError(data))
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", domain.ErrServerOffline, resp.StatusCode)
	default:
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
}

// apiError extracts the server's error message from a failure body
func apiError(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}
