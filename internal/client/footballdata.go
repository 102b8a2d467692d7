package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bolao/api/internal/metrics"
	"bolao/api/internal/models"

	"github.com/rs/zerolog/log"
)

// APIError is a non-2xx answer from football-data.org
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("football-data API error: %d", e.StatusCode)
	}
	return fmt.Sprintf("football-data API error: %d - %s", e.StatusCode, e.Body)
}

// Retryable reports whether a later attempt may succeed
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Options configures the football-data.org client
type Options struct {
	BaseURL       string
	Token         string
	CompetitionID string
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	MaxConcurrent int
}

// Client is the football-data.org v4 API client
type Client struct {
	baseURL       string
	token         string
	competitionID string
	httpClient    *http.Client
	rateLimiter   chan struct{} // Rate limiting semaphore
	maxRetries    int
	retryDelay    time.Duration
}

// NewClient creates a new football-data.org API client
func NewClient(opts Options) *Client {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	rateLimiter := make(chan struct{}, opts.MaxConcurrent)
	for i := 0; i < opts.MaxConcurrent; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		token:         opts.Token,
		competitionID: opts.CompetitionID,
		rateLimiter:   rateLimiter,
		maxRetries:    opts.MaxRetries,
		retryDelay:    opts.RetryDelay,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request with optional retries and bounded concurrency
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", reqURL).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, err := c.do(ctx, endpoint, reqURL, attempt)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, endpoint, reqURL string, attempt int) ([]byte, error) {
	// Rate limiting: acquire semaphore
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.rateLimiter:
	}
	defer func() { c.rateLimiter <- struct{}{} }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Auth-Token", c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "bolao-api/1.0")

	log.Debug().
		Str("url", reqURL).
		Int("attempt", attempt+1).
		Msg("Making API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPICall(endpoint, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.RecordAPICall(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().
			Str("url", reqURL).
			Int("status", resp.StatusCode).
			Msg("API request returned non-2xx status")
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	log.Debug().
		Str("url", reqURL).
		Int("status", resp.StatusCode).
		Int("size", len(body)).
		Msg("API request successful")

	return body, nil
}

func (c *Client) getMatches(ctx context.Context, endpoint string, params url.Values) (*models.FootballMatchesResponse, error) {
	path := fmt.Sprintf("/competitions/%s/matches", c.competitionID)

	body, err := c.get(ctx, endpoint, path, params)
	if err != nil {
		return nil, err
	}

	var resp models.FootballMatchesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse matches: %w", err)
	}

	return &resp, nil
}

// FetchCompetition fetches competition metadata, including the current matchday
func (c *Client) FetchCompetition(ctx context.Context) (*models.FootballCompetitionResponse, error) {
	body, err := c.get(ctx, "competition", "/competitions/"+c.competitionID, nil)
	if err != nil {
		return nil, err
	}

	var comp models.FootballCompetitionResponse
	if err := json.Unmarshal(body, &comp); err != nil {
		return nil, fmt.Errorf("failed to parse competition: %w", err)
	}

	return &comp, nil
}

// FetchMatches fetches every match of the competition's current season
func (c *Client) FetchMatches(ctx context.Context) (*models.FootballMatchesResponse, error) {
	return c.getMatches(ctx, "matches", nil)
}

// FetchFinishedMatches fetches matches with status FINISHED
func (c *Client) FetchFinishedMatches(ctx context.Context) (*models.FootballMatchesResponse, error) {
	return c.getMatches(ctx, "matches_finished", url.Values{"status": {models.StatusFinished}})
}

// FetchMatchesByMatchday fetches the matches of one matchday
func (c *Client) FetchMatchesByMatchday(ctx context.Context, matchday int) (*models.FootballMatchesResponse, error) {
	return c.getMatches(ctx, "matches_matchday", url.Values{"matchday": {strconv.Itoa(matchday)}})
}
