package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/meur/vgcatalog/internal/logger"
	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/query"
)

// Config configures the catalog API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RetryCount applies to GET requests only.
	RetryCount int
}

// APIClient talks to the catalog HTTP API.
type APIClient struct {
	client *resty.Client
}

// New creates a new catalog API client
func New(cfg Config) (*APIClient, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base URL must be an absolute http(s) URL, got: %s", cfg.BaseURL)
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	client.AddRetryCondition(retryCondition)
	return &APIClient{client: client}, nil
}

// retryCondition retries reads on network errors and 5xx responses.
// Cancelled requests are never retried.
func retryCondition(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return r.StatusCode() >= http.StatusInternalServerError
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (status %d)", e.Status)
	}
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsInvalid reports whether the server rejected the request as malformed.
func IsInvalid(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}

func (c *APIClient) request(ctx context.Context, body, result any) *resty.Request {
	req := c.client.R().SetContext(ctx).SetError(&APIError{})
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	return req
}

func handleResponse(ctx context.Context, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	logger.FromContext(ctx).Debug("API request completed",
		"method", resp.Request.Method, "url", resp.Request.URL, "status", resp.StatusCode())
	if !resp.IsError() {
		return nil
	}
	if apiErr, ok := resp.Error().(*APIError); ok && apiErr != nil {
		apiErr.Status = resp.StatusCode()
		return apiErr
	}
	return &APIError{Status: resp.StatusCode(), Message: resp.String()}
}

// List fetches one page of the catalog.
func (c *APIClient) List(ctx context.Context, req models.ListingRequest) (models.ListingResult, error) {
	var out models.ListingResult
	resp, err := c.request(ctx, nil, &out).
		SetQueryParamsFromValues(query.EncodeValues(req)).
		Get("/games")
	if err := handleResponse(ctx, resp, err); err != nil {
		return models.ListingResult{}, err
	}
	if out.Items == nil {
		out.Items = []models.Item{}
	}
	return out, nil
}

func (c *APIClient) GetItem(ctx context.Context, ref models.ItemRef) (models.Item, error) {
	var out models.Item
	resp, err := c.request(ctx, nil, &out).
		SetPathParam("ref", ref.String()).
		Get("/games/{ref}")
	if err := handleResponse(ctx, resp, err); err != nil {
		return models.Item{}, err
	}
	return out, nil
}

func (c *APIClient) CreateItem(ctx context.Context, f models.ItemFields) (models.Item, error) {
	var out models.Item
	resp, err := c.request(ctx, f, &out).Post("/sales")
	if err := handleResponse(ctx, resp, err); err != nil {
		return models.Item{}, err
	}
	return out, nil
}

func (c *APIClient) UpdateItem(ctx context.Context, id int64, f models.ItemFields) (models.Item, error) {
	var out models.Item
	resp, err := c.request(ctx, f, &out).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		Put("/sales/{id}")
	if err := handleResponse(ctx, resp, err); err != nil {
		return models.Item{}, err
	}
	return out, nil
}

// Reviews fetches one page of reviews of the item behind ref.
func (c *APIClient) Reviews(ctx context.Context, ref models.ItemRef, page, limit int) ([]models.Review, error) {
	var out struct {
		Data []models.Review `json:"data"`
	}
	req := c.request(ctx, nil, &out).SetPathParam("itemRef", ref.String())
	if page > 0 {
		req.SetQueryParam(query.ParamPage, strconv.Itoa(page))
	}
	if limit > 0 {
		req.SetQueryParam(query.ParamLimit, strconv.Itoa(limit))
	}
	resp, err := req.Get("/reviews/{itemRef}")
	if err := handleResponse(ctx, resp, err); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []models.Review{}
	}
	return out.Data, nil
}

func (c *APIClient) AddReview(ctx context.Context, in models.ReviewCreate) (models.Review, error) {
	var out struct {
		Data models.Review `json:"data"`
	}
	resp, err := c.request(ctx, in, &out).Post("/reviews")
	if err := handleResponse(ctx, resp, err); err != nil {
		return models.Review{}, err
	}
	return out.Data, nil
}

func (c *APIClient) DeleteReview(ctx context.Context, id int64) (models.Review, error) {
	var out struct {
		Message string        `json:"message"`
		Review  models.Review `json:"review"`
	}
	resp, err := c.request(ctx, nil, &out).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		Delete("/reviews/{id}")
	if err := handleResponse(ctx, resp, err); err != nil {
		return models.Review{}, err
	}
	return out.Review, nil
}
