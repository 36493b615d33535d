// Package api is the typed HTTP gateway to the debate topic service.
//
// The service is the only authority over topics and arguments. Every method is a single
// network round trip; nothing is retried and nothing is cached here.
package api

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
	"strings"
	"time"

	"debatepad/internal/model"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 8 << 20
)

type Client struct {
	base string
	http *http.Client
	log  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client for the service at baseURL (no /api suffix needed).
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/api")
	c := &Client{
		base: baseURL + "/api",
		http: &http.Client{Timeout: DefaultTimeout},
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API root, including the /api prefix.
func (c *Client) BaseURL() string { return c.base }

type createTopicRequest struct {
	Title string `json:"title"`
}

// AddArgumentRequest is the body of POST /topics/{id}/arguments.
type AddArgumentRequest struct {
	Point           string     `json:"point"`
	SupportingFacts []string   `json:"supporting_facts"`
	Side            model.Side `json:"side"`
}

type generateRequest struct {
	Topic string `json:"topic"`
}

func (c *Client) ListTopics(ctx context.Context) ([]model.Topic, error) {
	var topics []model.Topic
	if err := c.do(ctx, "listTopics", http.MethodGet, "/topics", nil, &topics); err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []model.Topic{}
	}
	return topics, nil
}

func (c *Client) GetTopic(ctx context.Context, id string) (model.Topic, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Topic{}, validationError("getTopic", "topic id is required")
	}
	var t model.Topic
	err := c.do(ctx, "getTopic", http.MethodGet, "/topics/"+url.PathEscape(id), nil, &t)
	return t, err
}

func (c *Client) CreateTopic(ctx context.Context, title string) (model.Topic, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Topic{}, validationError("createTopic", "title is required")
	}
	var t model.Topic
	err := c.do(ctx, "createTopic", http.MethodPost, "/topics", createTopicRequest{Title: title}, &t)
	return t, err
}

func (c *Client) DeleteTopic(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return validationError("deleteTopic", "topic id is required")
	}
	return c.do(ctx, "deleteTopic", http.MethodDelete, "/topics/"+url.PathEscape(id), nil, nil)
}

// AddArgument returns the full updated topic so callers never merge locally.
func (c *Client) AddArgument(ctx context.Context, topicID string, req AddArgumentRequest) (model.Topic, error) {
	const op = "addArgument"
	if strings.TrimSpace(topicID) == "" {
		return model.Topic{}, validationError(op, "topic id is required")
	}
	if strings.TrimSpace(req.Point) == "" {
		return model.Topic{}, validationError(op, "point is required")
	}
	if !req.Side.Valid() {
		return model.Topic{}, validationError(op, fmt.Sprintf("side must be 'for' or 'against', got %q", req.Side))
	}
	if req.SupportingFacts == nil {
		req.SupportingFacts = []string{}
	}
	var t model.Topic
	err := c.do(ctx, op, http.MethodPost, "/topics/"+url.PathEscape(topicID)+"/arguments", req, &t)
	return t, err
}

func (c *Client) DeleteArgument(ctx context.Context, topicID, argumentID string) error {
	const op = "deleteArgument"
	if strings.TrimSpace(topicID) == "" || strings.TrimSpace(argumentID) == "" {
		return validationError(op, "topic id and argument id are required")
	}
	path := "/topics/" + url.PathEscape(topicID) + "/arguments/" + url.PathEscape(argumentID)
	return c.do(ctx, op, http.MethodDelete, path, nil, nil)
}

// GenerateSuggestions asks the service for AI-proposed arguments. Every failure, including
// an unreachable service or a malformed batch, is reported as KindUpstream.
func (c *Client) GenerateSuggestions(ctx context.Context, title string) (model.SuggestionBatch, error) {
	const op = "generateSuggestions"
	title = strings.TrimSpace(title)
	if title == "" {
		return model.SuggestionBatch{}, validationError(op, "topic title is required")
	}
	var b model.SuggestionBatch
	if err := c.do(ctx, op, http.MethodPost, "/generate-arguments", generateRequest{Topic: title}, &b); err != nil {
		var e *Error
		if errors.As(err, &e) && e.Kind != KindUpstream {
			return model.SuggestionBatch{}, &Error{Kind: KindUpstream, Op: op, Status: e.Status, Message: e.Message, Err: e.Err}
		}
		return model.SuggestionBatch{}, err
	}
	if err := b.Validate(); err != nil {
		return model.SuggestionBatch{}, &Error{Kind: KindUpstream, Op: op, Message: "malformed suggestions", Err: err}
	}
	return b, nil
}

// Health calls the API banner endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/", nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Op: op, Message: "encode request", Err: err}
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", "op", op, "method", method, "path", path, "error", err)
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Status: resp.StatusCode, Message: "read response", Err: err}
	}
	c.log.Debug("request", "op", op, "method", method, "path", path, "status", resp.StatusCode, "dur", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindUpstream, Op: op, Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

func statusError(op string, status int, raw []byte) error {
	msg := errorMessage(raw)
	if msg == "" {
		msg = http.StatusText(status)
	}
	kind := KindUpstream
	switch status {
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = KindValidation
	}
	return &Error{Kind: kind, Op: op, Status: status, Message: msg}
}

// errorMessage understands both {"detail": "..."} and {"error": "..."} bodies.
func errorMessage(raw []byte) string {
	var body struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if body.Error != "" {
		return body.Error
	}
	switch d := body.Detail.(type) {
	case string:
		return d
	case nil:
		return ""
	default:
		b, _ := json.Marshal(d)
		return string(b)
	}
}
