package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"hseguardian/pkg/types"

	"github.com/sirupsen/logrus"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// RetryPolicy controls automatic retries for transient failures. Delay for
// attempt n (zero-based) is BaseDelay * 2^n.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  time.Second,
}

func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay * (1 << attempt)
}

// Client wraps the Airtable REST API for a single base.
type Client struct {
	baseURL    string
	baseID     string
	apiKey     string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *logrus.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseID, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		baseID:     baseID,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      DefaultRetryPolicy,
		logger:     logrus.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record is one Airtable row.
type Record struct {
	ID          string         `json:"id,omitempty"`
	Fields      map[string]any `json:"fields"`
	CreatedTime time.Time      `json:"createdTime,omitempty"`
}

type recordsEnvelope struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

type createRequest struct {
	Records  []Record `json:"records"`
	Typecast bool     `json:"typecast"`
}

// AttachmentCell converts uploaded attachments into the value Airtable
// expects in an attachment column.
func AttachmentCell(attachments []types.Attachment) []map[string]string {
	cell := make([]map[string]string, 0, len(attachments))
	for _, a := range attachments {
		cell = append(cell, map[string]string{
			"url":      a.URL,
			"filename": a.Filename,
		})
	}
	return cell
}

// CreateRecord inserts a single row. Typecast is always enabled so
// loosely-typed client values coerce to the remote column types.
func (c *Client) CreateRecord(ctx context.Context, table string, fields map[string]any) error {
	body := createRequest{
		Records:  []Record{{Fields: fields}},
		Typecast: true,
	}
	return c.do(ctx, http.MethodPost, c.tableURL(table), body, nil)
}

// UpdateRecord patches fields on an existing row.
func (c *Client) UpdateRecord(ctx context.Context, table, recordID string, fields map[string]any) error {
	body := createRequest{
		Records:  []Record{{ID: recordID, Fields: fields}},
		Typecast: true,
	}
	return c.do(ctx, http.MethodPatch, c.tableURL(table), body, nil)
}

// ListRecords fetches all rows matching the optional filterByFormula,
// following pagination offsets until exhausted.
func (c *Client) ListRecords(ctx context.Context, table, formula string) ([]Record, error) {
	var all []Record
	offset := ""

	for {
		u := c.tableURL(table)
		q := url.Values{}
		if formula != "" {
			q.Set("filterByFormula", formula)
		}
		if offset != "" {
			q.Set("offset", offset)
		}
		if len(q) > 0 {
			u += "?" + q.Encode()
		}

		var page recordsEnvelope
		if err := c.do(ctx, http.MethodGet, u, nil, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Records...)
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, url.PathEscape(table))
}

// do executes one API call with the retry policy applied to transient
// failures. Non-transient failures return immediately as a *types.SyncError.
func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode airtable request: %w", err)
		}
	}

	var lastErr *types.SyncError
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"class":   lastErr.Class,
			}).Warn("retrying airtable request")

			select {
			case <-time.After(c.retry.Delay(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		serr := c.attempt(ctx, method, u, payload, out)
		if serr == nil {
			return nil
		}
		if !serr.Transient() {
			return serr
		}
		lastErr = serr
	}

	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, u string, payload []byte, out any) *types.SyncError {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &types.SyncError{
			Class:   types.ErrClassUnknown,
			Message: "Could not build the Airtable request.",
			Detail:  err.Error(),
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return &types.SyncError{
					Class:   types.ErrClassUnknown,
					Message: "Airtable returned an unreadable response.",
					Detail:  err.Error(),
				}
			}
		}
		return nil
	}

	return classifyStatus(resp.StatusCode, respBody)
}
