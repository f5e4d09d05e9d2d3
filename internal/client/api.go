package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"directchat/backend/internal/apperr"
	"directchat/backend/internal/models"
)

// APIError is a non-2xx answer from the server. It unwraps to the matching
// apperr sentinels so callers can use errors.Is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() []error {
	switch e.Status {
	case http.StatusUnauthorized:
		return []error{apperr.ErrUnauthenticated}
	case http.StatusNotFound:
		return []error{apperr.ErrInvalidRecipient, apperr.ErrNotFound}
	case http.StatusUnsupportedMediaType:
		return []error{apperr.ErrUnsupportedMedia}
	}
	for _, sentinel := range []error{
		apperr.ErrInvalidRecipient,
		apperr.ErrEmptyMessage,
		apperr.ErrEmailTaken,
		apperr.ErrInvalidCredentials,
		apperr.ErrMediaUpload,
	} {
		if strings.HasPrefix(e.Message, sentinel.Error()) {
			return []error{sentinel}
		}
	}
	return nil
}

// APIClient talks to the /api/v1 HTTP surface. It keeps the token from the
// last sign-in and presents it as a bearer header.
type APIClient struct {
	BaseURL string
	HTTP    *http.Client

	mu    sync.RWMutex
	token string
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// WebSocketURL is the realtime endpoint derived from BaseURL.
func (c *APIClient) WebSocketURL() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

func (c *APIClient) SignUp(ctx context.Context, fullName, email, password string) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	body := map[string]string{"full_name": fullName, "email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/user/sign-up", body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// SignIn authenticates and remembers the returned token.
func (c *APIClient) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	var out struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/user/sign-in", body, &out); err != nil {
		return nil, "", err
	}
	c.SetToken(out.Token)
	return &out.User, out.Token, nil
}

// SignOut revokes the token server side and forgets it.
func (c *APIClient) SignOut(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodGet, "/api/v1/user/sign-out", nil, nil)
	c.SetToken("")
	return err
}

func (c *APIClient) Me(ctx context.Context) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/user/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *APIClient) Users(ctx context.Context) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/message/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *APIClient) Online(ctx context.Context) ([]models.User, error) {
	var out struct {
		Users []models.User `json:"users"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/message/online", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *APIClient) History(ctx context.Context, peerID string) ([]models.Message, error) {
	var out struct {
		Messages []models.Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/message/"+url.PathEscape(peerID), nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// Send submits pm as multipart/form-data and returns the persisted message.
func (c *APIClient) Send(ctx context.Context, pm PendingMessage) (*models.Message, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("text", pm.Text); err != nil {
		return nil, err
	}
	if pm.Attachment != nil {
		part, err := w.CreateFormFile("media", pm.Attachment.Filename)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(pm.Attachment.Data); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out struct {
		Message models.Message `json:"message"`
	}
	path := "/api/v1/message/send/" + url.PathEscape(pm.ReceiverID)
	if err := c.do(ctx, http.MethodPost, path, &buf, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out.Message, nil
}

func (c *APIClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	if body == nil {
		return c.do(ctx, method, path, nil, "", out)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(data), "application/json", out)
}

func (c *APIClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil || failure.Message == "" {
			failure.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: failure.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
