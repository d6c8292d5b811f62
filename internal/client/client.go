// Package client talks to a remote engagement data backend over HTTP and
// exposes it as an engagement.Backend.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/virdanengage/internal/engagement"
	"github.com/ferdian3456/virdanengage/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxResponseBytes = 4 << 20

// StatusError is an unexpected non-2xx response. Its body is kept for logs
// only.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

// ForViewer binds the client to one viewer's bearer token. An empty token
// makes anonymous requests.
func (c *Client) ForViewer(token string) *ViewerClient {
	return &ViewerClient{client: c, token: token}
}

// ViewerClient implements engagement.Backend for one viewer.
type ViewerClient struct {
	client *Client

	mu    sync.RWMutex
	token string
}

// SetToken swaps the bearer token after a refresh. Requests already sent
// keep the old one.
func (v *ViewerClient) SetToken(token string) {
	v.mu.Lock()
	v.token = token
	v.mu.Unlock()
}

func (v *ViewerClient) bearer() string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.token
}

var _ engagement.Backend = (*ViewerClient)(nil)

func (v *ViewerClient) do(ctx context.Context, method string, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := sonic.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, v.client.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := v.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := v.client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, engagement.Unauthenticated()
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return nil, engagement.Rejected(decodeErrorMessage(data, resp.StatusCode))
	}

	observability.WithContext(ctx, v.client.log).Warn("data backend returned an error",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return nil, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: truncate(string(data), 256)}
}

func truncate(value string, n int) string {
	if len(value) <= n {
		return value
	}

	return value[:n]
}

func targetPath(targetID string, kind engagement.Kind) string {
	return "/api/" + string(kind) + "s/" + url.PathEscape(targetID)
}

func (v *ViewerClient) IncrementView(ctx context.Context, targetID string, kind engagement.Kind) (int, error) {
	data, err := v.do(ctx, http.MethodPost, targetPath(targetID, kind)+"/views", nil)
	if err != nil {
		return 0, err
	}

	return decodeViewCount(data)
}

func (v *ViewerClient) ToggleLike(ctx context.Context, targetID string, kind engagement.Kind) (engagement.LikeResult, error) {
	data, err := v.do(ctx, http.MethodPost, targetPath(targetID, kind)+"/likes/toggle", nil)
	if err != nil {
		return engagement.LikeResult{}, err
	}

	return decodeLikeResult(data)
}

func (v *ViewerClient) ListTopLevelComments(ctx context.Context, postID string, query engagement.ListQuery) (engagement.CommentPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(query.Page))
	params.Set("limit", strconv.Itoa(query.Limit))
	if query.SortBy != "" {
		params.Set("sortBy", string(query.SortBy))
	}

	data, err := v.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(postID)+"/comments?"+params.Encode(), nil)
	if err != nil {
		return engagement.CommentPage{}, err
	}

	return decodeCommentPage(data)
}

func (v *ViewerClient) ListReplies(ctx context.Context, parentCommentID string, limit int) ([]engagement.CommentNode, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	data, err := v.do(ctx, http.MethodGet, "/api/comments/"+url.PathEscape(parentCommentID)+"/replies?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	return decodeReplies(data, parentCommentID)
}

type createCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentId,omitempty"`
}

func (v *ViewerClient) CreateComment(ctx context.Context, input engagement.CreateCommentInput) (engagement.CommentNode, error) {
	data, err := v.do(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(input.PostID)+"/comments", createCommentRequest{
		Content:  input.Content,
		ParentID: input.ParentID,
	})
	if err != nil {
		return engagement.CommentNode{}, err
	}

	return decodeComment(data)
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

func (v *ViewerClient) UpdateComment(ctx context.Context, id string, content string) (engagement.CommentNode, error) {
	data, err := v.do(ctx, http.MethodPut, "/api/comments/"+url.PathEscape(id), updateCommentRequest{Content: content})
	if err != nil {
		return engagement.CommentNode{}, err
	}

	return decodeComment(data)
}

func (v *ViewerClient) DeleteComment(ctx context.Context, id string) error {
	_, err := v.do(ctx, http.MethodDelete, "/api/comments/"+url.PathEscape(id), nil)
	return err
}
