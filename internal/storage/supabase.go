package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"hseguardian/internal/utils"
	"hseguardian/pkg/types"
)

// SupabaseStorage uploads report images to a Supabase Storage bucket.
type SupabaseStorage struct {
	projectID  string
	apiKey     string
	bucketName string
	baseURL    string
	httpClient *http.Client

	maxRetries int
	baseDelay  time.Duration
}

type Option func(*SupabaseStorage)

// WithBaseURL overrides the project endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(s *SupabaseStorage) { s.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(s *SupabaseStorage) { s.httpClient = h }
}

func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(s *SupabaseStorage) {
		s.maxRetries = maxRetries
		s.baseDelay = baseDelay
	}
}

// NewSupabaseStorage creates a new Supabase Storage client
func NewSupabaseStorage(projectID, apiKey, bucketName string, opts ...Option) *SupabaseStorage {
	s := &SupabaseStorage{
		projectID:  projectID,
		apiKey:     apiKey,
		bucketName: bucketName,
		baseURL:    fmt.Sprintf("https://%s.supabase.co", projectID),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		baseDelay:  time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ObjectPath builds the bucket-relative key for a new upload:
// {folder}/{timestamp}_{random}.{ext}
func ObjectPath(folder, filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s/%d_%s.%s", folder, time.Now().UnixMilli(), utils.NanoIDSize(8), ext)
}

// UploadFile uploads an object and returns its public URL. Transient
// failures (network, 429, 5xx) are retried with exponential backoff.
func (s *SupabaseStorage) UploadFile(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	u := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucketName, objectPath)

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.baseDelay * (1 << (attempt - 1))):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		retryable, err := s.upload(ctx, u, data, contentType)
		if err == nil {
			return s.GetPublicURL(objectPath), nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}

	return "", &types.SyncError{
		Class:   types.ErrClassNetwork,
		Message: "Could not upload images to storage. Check your internet connection.",
		Detail:  lastErr.Error(),
	}
}

func (s *SupabaseStorage) upload(ctx context.Context, u string, data []byte, contentType string) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return false, nil
	}

	body, _ := io.ReadAll(resp.Body)
	err = fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))

	retryable = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
	return retryable, err
}

// DeleteFile removes a file from Supabase Storage
func (s *SupabaseStorage) DeleteFile(ctx context.Context, objectPath string) error {
	u := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucketName, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// GetPublicURL returns the public URL for a file
func (s *SupabaseStorage) GetPublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucketName, objectPath)
}
