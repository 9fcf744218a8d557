package extraction

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/loanrecon/internal/common"
)

const analyzeBody = `{
	"document_type": "loan_application",
	"confidence": 0.92,
	"processing_time": 1.4,
	"errors": ["page 3 unreadable"],
	"loan_application": {
		"loan_amount": "$44,500",
		"interest_rate": 5.9,
		"borrowers": [
			{"full_name": "John Smith", "credit_score": 725, "is_co_borrower": false}
		],
		"vehicle_details": {"make": "Toyota", "year": 2022, "vin": null}
	}
}`

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.APIKey = "secret"
	cfg.RetryDelay = time.Millisecond
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestClient_Extract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, analyzePath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer func() { _ = file.Close() }()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "application.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4 test", string(content))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(analyzeBody))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL + "/"))
	require.NoError(t, err)

	ext, err := client.Extract(context.Background(), "/tmp/docs/application.pdf", strings.NewReader("%PDF-1.4 test"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/docs/application.pdf", ext.DocumentName)
	assert.Equal(t, "loan_application", ext.DocumentType)
	assert.InDelta(t, 0.92, ext.Confidence, 1e-9)
	assert.Equal(t, []string{"page 3 unreadable"}, ext.Errors)
	assert.Zero(t, ext.LoanID)
	assert.False(t, ext.CreatedAt.IsZero())

	require.NotNil(t, ext.Record)
	assert.Equal(t, "$44,500", ext.Record.LoanAmount.Literal())
	assert.False(t, ext.Record.LoanAmount.IsNumber())
	assert.True(t, ext.Record.InterestRate.IsNumber())
	require.Len(t, ext.Record.Borrowers, 1)
	assert.Equal(t, "John Smith", ext.Record.Borrowers[0].FullName.Literal())
	require.NotNil(t, ext.Record.Vehicle)
	assert.Equal(t, "Toyota", ext.Record.Vehicle.Make.Literal())
	assert.Nil(t, ext.Record.Vehicle.VIN)
}

func TestClient_Extract_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
			return
		}
		_, _ = w.Write([]byte(analyzeBody))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	ext, err := client.Extract(context.Background(), "app.pdf", strings.NewReader("doc"))
	require.NoError(t, err)
	assert.NotNil(t, ext.Record)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Extract_Errors(t *testing.T) {
	tests := []struct {
		wantErr   error
		name      string
		body      string
		status    int
		wantCalls int32
	}{
		{
			name:      "client error is not retried",
			status:    http.StatusUnprocessableEntity,
			body:      `{"detail":"unsupported file"}`,
			wantErr:   common.ErrExtractionFailed,
			wantCalls: 1,
		},
		{
			name:      "server error exhausts retries",
			status:    http.StatusInternalServerError,
			body:      "boom",
			wantErr:   common.ErrExtractionService,
			wantCalls: 3,
		},
		{
			name:      "rate limit exhausts retries",
			status:    http.StatusTooManyRequests,
			wantErr:   common.ErrRateLimit,
			wantCalls: 3,
		},
		{
			name:      "malformed body is not retried",
			status:    http.StatusOK,
			body:      `{"loan_application": [`,
			wantErr:   common.ErrExtractionFailed,
			wantCalls: 1,
		},
		{
			name:      "missing loan application",
			status:    http.StatusOK,
			body:      `{"document_type":"paystub","confidence":0.4}`,
			wantErr:   common.ErrExtractionFailed,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(testConfig(server.URL))
			require.NoError(t, err)

			_, err = client.Extract(context.Background(), "app.pdf", strings.NewReader("doc"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "error = %v", err)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClient_Extract_RejectsEmptyInput(t *testing.T) {
	client, err := NewClient(testConfig("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = client.Extract(context.Background(), " ", strings.NewReader("doc"))
	assert.Error(t, err)

	_, err = client.Extract(context.Background(), "empty.pdf", strings.NewReader(""))
	assert.ErrorContains(t, err, "empty")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		mutate  func(*Config)
		name    string
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing url", mutate: func(c *Config) { c.BaseURL = "" }, wantErr: true},
		{name: "relative url", mutate: func(c *Config) { c.BaseURL = "localhost" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: true},
		{name: "no attempts", mutate: func(c *Config) { c.RetryAttempts = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Run("short body untouched", func(t *testing.T) {
		assert.Equal(t, "bad gateway", truncate([]byte("  bad gateway\n")))
	})

	t.Run("cuts on a rune boundary", func(t *testing.T) {
		// One ASCII byte shifts every two-byte rune so the limit lands mid-rune.
		body := "x" + strings.Repeat("é", maxErrorBody)
		got := truncate([]byte(body))
		assert.True(t, utf8.ValidString(got))
		assert.True(t, strings.HasSuffix(got, "..."))
		assert.LessOrEqual(t, len(got), maxErrorBody+len("..."))
		assert.Equal(t, maxErrorBody-1, len(strings.TrimSuffix(got, "...")))
	})
}
