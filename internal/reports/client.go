package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"scorekeeper-backend/internal/models"
)

const (
	// ReportTimeout is generous because the service builds reports on
	// demand and large member histories take minutes.
	ReportTimeout  = 5 * time.Minute
	WrappedTimeout = 30 * time.Second
)

var (
	ErrTimeout  = errors.New("request timed out. The server is taking too long to respond. Please try again")
	ErrUpstream = errors.New("statistics service error")
	ErrNoData   = errors.New("no data received from server")
)

// Client talks to the league statistics service.
type Client struct {
	baseURL string
	client  *http.Client
	headers map[string]string

	reportTimeout  time.Duration
	wrappedTimeout time.Duration
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		client:         &http.Client{},
		headers:        make(map[string]string),
		reportTimeout:  ReportTimeout,
		wrappedTimeout: WrappedTimeout,
	}
}

func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetTimeouts overrides the per-call deadlines.
func (c *Client) SetTimeouts(report, wrapped time.Duration) {
	if report > 0 {
		c.reportTimeout = report
	}
	if wrapped > 0 {
		c.wrappedTimeout = wrapped
	}
}

type reportRequest struct {
	MemberID string   `json:"memberId"`
	Seasons  []string `json:"seasons,omitempty"`
}

type reportResponse struct {
	Report *models.Report `json:"report"`
	Error  string         `json:"error"`
}

type wrappedRequest struct {
	MemberID string `json:"memberId"`
	Year     int    `json:"year"`
}

type wrappedResponse struct {
	Slides []models.WrappedSlide `json:"slides"`
	Error  string                `json:"error"`
}

// Report fetches a member's report, restricted to season when it is set.
func (c *Client) Report(ctx context.Context, memberID, season string) (*models.Report, error) {
	req := reportRequest{MemberID: memberID}
	if season != "" {
		req.Seasons = []string{season}
	}

	var resp reportResponse
	if err := c.post(ctx, "/report/get", c.reportTimeout, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, resp.Error)
	}
	if resp.Report == nil {
		return nil, ErrNoData
	}
	return resp.Report, nil
}

// Wrapped fetches the year-in-review slides for a member.
func (c *Client) Wrapped(ctx context.Context, memberID string, year int) ([]models.WrappedSlide, error) {
	var resp wrappedResponse
	if err := c.post(ctx, "/wrapped/year/get", c.wrappedTimeout, wrappedRequest{MemberID: memberID, Year: year}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, resp.Error)
	}
	if resp.Slides == nil {
		return nil, ErrNoData
	}
	return resp.Slides, nil
}

func (c *Client) post(ctx context.Context, endpoint string, timeout time.Duration, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return ErrTimeout
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return ErrTimeout
		}
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: server error: %d", ErrUpstream, resp.StatusCode)
	}
	if len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return ErrNoData
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
