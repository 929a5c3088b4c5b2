// Package api talks to the remote todo REST API for one tenant.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/idilsaglam/tada/internal/model"
)

// DefaultBaseURL is the hosted API the app was built against.
const DefaultBaseURL = "https://assignment-todolist-api.vercel.app/api"

// Client is bound to exactly one tenant for its lifetime. Construct one per
// tenant and hand it to whatever owns the sync stores.
type Client[ID model.Key] struct {
	baseURL    string
	layout     Layout
	httpClient *http.Client
	logger     *log.Logger
}

// Options configure a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL    string
	Tenant     string
	Images     ImageRoute
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
}

// New creates a client for opts.Tenant.
func New[ID model.Key](opts Options) (*Client[ID], error) {
	tenant := strings.TrimSpace(opts.Tenant)
	if tenant == "" {
		return nil, fmt.Errorf("tenant id is required")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	images := opts.Images
	if images == "" {
		images = ImageRouteTenant
	}
	return &Client[ID]{
		baseURL:    base,
		layout:     Layout{Tenant: tenant, Images: images},
		httpClient: hc,
		logger:     logger.WithPrefix("api"),
	}, nil
}

// Tenant returns the tenant the client is bound to.
func (c *Client[ID]) Tenant() string { return c.layout.Tenant }

// List fetches the whole collection. The remote is not paginated.
func (c *Client[ID]) List(ctx context.Context) ([]model.Item[ID], error) {
	var items []model.Item[ID]
	if err := c.doJSON(ctx, http.MethodGet, c.layout.Items(), nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item[ID]{}
	}
	return items, nil
}

// Get fetches one item. A 404 yields an error of KindNotFound.
func (c *Client[ID]) Get(ctx context.Context, id ID) (model.Item[ID], error) {
	var it model.Item[ID]
	err := c.doJSON(ctx, http.MethodGet, c.layout.Item(model.FormatID(id)), nil, &it)
	return it, err
}

// Create posts a new item; the remote assigns its id.
func (c *Client[ID]) Create(ctx context.Context, in model.NewItem) (model.Item[ID], error) {
	var it model.Item[ID]
	if err := validateNewName(in.Name); err != nil {
		return it, err
	}
	err := c.doJSON(ctx, http.MethodPost, c.layout.Items(), in, &it)
	return it, err
}

// Update sends only the fields present in p and returns the full item.
func (c *Client[ID]) Update(ctx context.Context, id ID, p model.Patch) (model.Item[ID], error) {
	var it model.Item[ID]
	err := c.doJSON(ctx, http.MethodPatch, c.layout.Item(model.FormatID(id)), p, &it)
	return it, err
}

// Delete removes an item. Deleting twice yields KindNotFound the second time.
func (c *Client[ID]) Delete(ctx context.Context, id ID) error {
	return c.doJSON(ctx, http.MethodDelete, c.layout.Item(model.FormatID(id)), nil, nil)
}

type uploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// UploadImage validates img locally and uploads it as multipart field
// "image". It returns the hosted URL; attaching it to an item is up to the
// caller.
func (c *Client[ID]) UploadImage(ctx context.Context, img Image) (string, error) {
	if err := ValidateImage(img); err != nil {
		c.logger.Warn("image rejected", "context", "Image Upload", "file", img.Name, "reason", ReasonOf(err))
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, img.Name))
	h.Set("Content-Type", img.Type)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return "", fmt.Errorf("write multipart part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	var out uploadResponse
	if err := c.do(ctx, http.MethodPost, c.layout.ImageUpload(), mw.FormDataContentType(), &body, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", &Error{Kind: KindGeneric, Message: "upload response has no url"}
	}
	return out.URL, nil
}

func (c *Client[ID]) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, body, out)
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (c *Client[ID]) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	reqID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("request failed", "context", "API Request", "method", method, "path", path, "request_id", reqID, "err", err)
		return networkError(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(raw, &eb)
		apiErr := httpError(resp.StatusCode, eb.Message, eb.Code)
		c.logger.Error("request rejected", "context", "API Request", "method", method, "path", path,
			"status", resp.StatusCode, "request_id", reqID, "err", apiErr.Message)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return &Error{Kind: KindGeneric, Status: resp.StatusCode, Message: "empty response body"}
		}
		return &Error{Kind: KindGeneric, Status: resp.StatusCode, Message: "decode response: " + err.Error(), Err: err}
	}
	return nil
}
