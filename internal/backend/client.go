package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/utils"
	"github.com/SAP-F-2025/test-session/internal/validator"
)

// questionPageSize asks the backend for every question of a test in one page.
const questionPageSize = 999

// TokenSource provides the bearer token attached to every request.
type TokenSource interface {
	Token() string
}

// InvalidTokenHandler is told when the backend rejects the token as invalid.
type InvalidTokenHandler interface {
	HandleInvalidToken(ctx context.Context, path string)
}

// RequestHook can change every outgoing request before it is sent.
type RequestHook func(req *http.Request)

type Config struct {
	BaseURL             string
	Timeout             time.Duration
	InvalidTokenMessage string
	HTTPClient          *http.Client
}

// Client talks to the quiz backend REST API.
type Client struct {
	baseURL             string
	http                *http.Client
	tokens              TokenSource
	onInvalidToken      InvalidTokenHandler
	invalidTokenMessage string
	hooks               []RequestHook
	validator           *validator.Validator
	logger              utils.Logger
}

func NewClient(cfg Config, tokens TokenSource, onInvalidToken InvalidTokenHandler, v *validator.Validator, logger utils.Logger) *Client {
	h := cfg.HTTPClient
	if h == nil {
		h = &http.Client{Timeout: cfg.Timeout}
	}
	msg := cfg.InvalidTokenMessage
	if msg == "" {
		msg = "invalid token"
	}
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	c := &Client{
		baseURL:             strings.TrimRight(cfg.BaseURL, "/"),
		http:                h,
		tokens:              tokens,
		onInvalidToken:      onInvalidToken,
		invalidTokenMessage: strings.ToLower(msg),
		validator:           v,
		logger:              logger.With("component", "backend"),
	}
	c.hooks = append(c.hooks, c.authorize)
	return c
}

// Use appends a request hook.
func (c *Client) Use(hook RequestHook) {
	c.hooks = append(c.hooks, hook)
}

func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// ListQuestions returns the ordered questions of a test.
func (c *Client) ListQuestions(ctx context.Context, testID models.ID) ([]models.Question, error) {
	q := url.Values{}
	q.Set("testId", testID.String())
	q.Set("size", fmt.Sprint(questionPageSize))

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/questions", q, nil, &raw); err != nil {
		return nil, err
	}
	var questions []models.Question
	if err := decodeEnvelope(raw, &questions, "content", "data", "items"); err != nil {
		return nil, fmt.Errorf("%w: questions: %v", ErrBadResponse, err)
	}
	return questions, nil
}

// GetTest returns the metadata of a test.
func (c *Client) GetTest(ctx context.Context, testID models.ID) (*models.Test, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/testList/"+url.PathEscape(testID.String()), nil, nil, &raw); err != nil {
		return nil, err
	}
	var test models.Test
	if err := decodeEnvelope(raw, &test, "data"); err != nil {
		return nil, fmt.Errorf("%w: test: %v", ErrBadResponse, err)
	}
	return &test, nil
}

// Submit sends the full answer set and returns the graded result.
func (c *Client) Submit(ctx context.Context, req *models.SubmitRequest) (*models.SubmissionResult, error) {
	if err := c.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("invalid submission: %w", err)
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/questions/submit", nil, req, &raw); err != nil {
		return nil, err
	}
	var result models.SubmissionResult
	if err := decodeEnvelope(raw, &result, "data"); err != nil {
		return nil, fmt.Errorf("%w: submission result: %v", ErrBadResponse, err)
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, hook := range c.hooks {
		hook(req)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Backend request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}
	c.logger.LogRequest(method, path, res.StatusCode, time.Since(start), "component", "backend")

	if res.StatusCode/100 != 2 {
		apiErr := &APIError{Method: method, Path: path, Status: res.StatusCode, Message: errorMessage(data)}
		if res.StatusCode == http.StatusUnauthorized && strings.Contains(strings.ToLower(apiErr.Message), c.invalidTokenMessage) {
			if c.onInvalidToken != nil {
				c.onInvalidToken.HandleInvalidToken(ctx, path)
			}
			return fmt.Errorf("%w: %s", ErrInvalidToken, apiErr.Error())
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrBadResponse, method, path, err)
	}
	return nil
}

// errorMessage pulls a human readable message out of an error body.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(data))
}

// decodeEnvelope decodes raw into out, unwrapping the first of keys that is
// present when raw is an object envelope instead of the value itself.
func decodeEnvelope(raw json.RawMessage, out any, keys ...string) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			for _, k := range keys {
				if inner, ok := envelope[k]; ok && len(bytes.TrimSpace(inner)) > 0 && string(bytes.TrimSpace(inner)) != "null" {
					return json.Unmarshal(inner, out)
				}
			}
		}
	}
	return json.Unmarshal(trimmed, out)
}
