package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/loanrecon/internal/common"
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/service"
)

const analyzePath = "/api/documents/analyze"

// maxErrorBody bounds how much of an error response is quoted back.
const maxErrorBody = 512

var _ service.Extractor = (*Client)(nil)

// Client calls the document-extraction service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retryOpts  service.RetryOptions
}

// NewClient creates a new extraction client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		retryOpts: service.RetryOptions{
			MaxAttempts:  cfg.RetryAttempts,
			InitialDelay: cfg.RetryDelay,
			MaxDelay:     30 * cfg.RetryDelay,
			Multiplier:   2.0,
		},
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// analyzeResponse is the service's response body.
type analyzeResponse struct {
	LoanApplication *model.LoanRecord `json:"loan_application"`
	DocumentType    string            `json:"document_type"`
	Errors          []string          `json:"errors"`
	Confidence      float64           `json:"confidence"`
	ProcessingTime  float64           `json:"processing_time"`
}

// Extract uploads a document and returns the record the service found in it.
// Rate limiting and server errors are retried; other failures are returned as is.
// The returned Extraction has no LoanID; the caller assigns it.
func (c *Client) Extract(ctx context.Context, documentName string, document io.Reader) (*model.Extraction, error) {
	if strings.TrimSpace(documentName) == "" {
		return nil, fmt.Errorf("document name is required")
	}

	// Read once so retries can resend the same body.
	content, err := io.ReadAll(document)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("document %s is empty", documentName)
	}

	var result analyzeResponse
	err = common.WithRetry(ctx, func() error {
		var callErr error
		result, callErr = c.analyze(ctx, documentName, content)
		return callErr
	}, c.retryOpts)
	if err != nil {
		return nil, err
	}

	if result.LoanApplication == nil {
		return nil, fmt.Errorf("%w: no loan application in response for %s", common.ErrExtractionFailed, documentName)
	}

	slog.Info("Document analyzed",
		"document", documentName,
		"document_type", result.DocumentType,
		"confidence", result.Confidence,
		"processing_time", result.ProcessingTime,
		"errors", len(result.Errors))

	return &model.Extraction{
		Record:       result.LoanApplication,
		DocumentName: documentName,
		DocumentType: result.DocumentType,
		Confidence:   result.Confidence,
		Errors:       result.Errors,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (c *Client) analyze(ctx context.Context, documentName string, content []byte) (analyzeResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(documentName))
	if err != nil {
		return analyzeResponse{}, &common.RetryableError{Err: fmt.Errorf("failed to create form: %w", err)}
	}
	if _, err := part.Write(content); err != nil {
		return analyzeResponse{}, &common.RetryableError{Err: fmt.Errorf("failed to write form: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return analyzeResponse{}, &common.RetryableError{Err: fmt.Errorf("failed to finish form: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, body)
	if err != nil {
		return analyzeResponse{}, &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return analyzeResponse{}, fmt.Errorf("%w: %w", common.ErrExtractionService, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return analyzeResponse{}, fmt.Errorf("%w: failed to read response: %w", common.ErrExtractionService, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return analyzeResponse{}, fmt.Errorf("%w: extraction service returned 429", common.ErrRateLimit)
	case resp.StatusCode >= http.StatusInternalServerError:
		return analyzeResponse{}, fmt.Errorf("%w (status %d): %s",
			common.ErrExtractionService, resp.StatusCode, truncate(respBody))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return analyzeResponse{}, &common.RetryableError{
			Err: fmt.Errorf("%w (status %d): %s", common.ErrExtractionFailed, resp.StatusCode, truncate(respBody)),
		}
	}

	var result analyzeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return analyzeResponse{}, &common.RetryableError{
			Err: fmt.Errorf("%w: failed to parse response: %w", common.ErrExtractionFailed, err),
		}
	}
	return result, nil
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		n := maxErrorBody
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		return s[:n] + "..."
	}
	return s
}
