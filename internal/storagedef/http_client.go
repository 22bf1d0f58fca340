// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package storagedef

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// HTTPClient is a wrapper around http.Client with common functionality
// for storage API clients
type HTTPClient struct {
	client     *http.Client
	baseURL    string
	headers    map[string]string
	authHook   func(*http.Request) error
	propagator propagation.TextMapPropagator
	timeout    time.Duration
}

// HTTPClientConfig configures the HTTP client
type HTTPClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	VerifySSL bool
	TLS       TLSConfig
	// Transport overrides the default transport, mostly for tests.
	Transport http.RoundTripper
}

// NewHTTPClient creates a new HTTP client for storage API calls
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		tlsConfig, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build TLS config: %w", err)
		}
		transport = &http.Transport{
			TLSClientConfig:     tlsConfig,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		headers:    make(map[string]string),
		propagator: otel.GetTextMapPropagator(),
		timeout:    cfg.Timeout,
	}, nil
}

// buildTLSConfig creates a TLS configuration
func buildTLSConfig(cfg HTTPClientConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if !cfg.VerifySSL || cfg.TLS.InsecureSkipVerify {
		tlsConfig.InsecureSkipVerify = true
	}

	if cfg.TLS.CAFile != "" {
		caCert, err := os.ReadFile(cfg.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCertPool := x509.NewCertPool()
		caCertPool.AppendCertsFromPEM(caCert)
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// SetHeader sets a header that will be included in all requests
func (c *HTTPClient) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetBasicAuth installs an auth hook sending HTTP basic credentials.
func (c *HTTPClient) SetBasicAuth(username, password string) {
	c.authHook = func(req *http.Request) error {
		req.SetBasicAuth(username, password)
		return nil
	}
}

// Post performs an HTTP POST request
func (c *HTTPClient) Post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.doRequest(ctx, http.MethodPost, path, body, result)
}

// CloseIdleConnections drops pooled connections.
func (c *HTTPClient) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}

// doRequest performs an HTTP request. Network failures and non-2xx
// statuses are returned as TransportError, everything else as GeneralError.
func (c *HTTPClient) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return General(method+" "+path, fmt.Errorf("failed to marshal request body: %w", err))
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return General(method+" "+path, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	if c.propagator != nil {
		c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))
	}

	if c.authHook != nil {
		if err := c.authHook(req); err != nil {
			return General(method+" "+path, fmt.Errorf("auth hook failed: %w", err))
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Transport(method+" "+path, fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Transport(method+" "+path, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Transport(method+" "+path, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		})
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return General(method+" "+path, fmt.Errorf("failed to decode response: %w", err))
		}
	}

	return nil
}

// APIError represents an API error response
type APIError struct {
	StatusCode int
	Code       int
	Name       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("API error %s (code %d): %s", e.Name, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}
