// Package gateway performs the HTTP exchange with the CTI OS service. It
// posts a rendered request document and hands the raw response body back to
// the caller; interpreting the payload belongs to the response package.
package gateway

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CallError wraps any transport-level fault of a service call: connection
// refused, timeout, or a non-success HTTP status. A failed call aborts the
// current batch; there is no retry.
type CallError struct {
	Endpoint string
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("service call to %s failed: %v", e.Endpoint, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Gateway posts request documents to a fixed endpoint.
type Gateway struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
	log      *zap.Logger
}

// New creates a gateway for the given endpoint and request headers. A zero
// timeout leaves bounding the call latency entirely to the caller's context.
func New(endpoint string, headers map[string]string, timeout time.Duration, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		endpoint: endpoint,
		headers:  headers,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Call posts the request document and returns the raw response text.
func (g *Gateway) Call(ctx context.Context, requestDoc string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(requestDoc))
	if err != nil {
		return "", &CallError{Endpoint: g.endpoint, Err: err}
	}
	for k, v := range g.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return "", &CallError{Endpoint: g.endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &CallError{Endpoint: g.endpoint, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	// Setting Accept-Encoding explicitly disables the transport's
	// transparent decompression, so a server honoring the configured
	// header hands us compressed bytes we must decode ourselves.
	body, err = decodeBody(resp.Header.Get("Content-Encoding"), body)
	if err != nil {
		return "", &CallError{Endpoint: g.endpoint, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &CallError{
			Endpoint: g.endpoint,
			Err:      fmt.Errorf("service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	g.log.Debug("service call complete",
		zap.Int("request_bytes", len(requestDoc)),
		zap.Int("response_bytes", len(body)),
		zap.Duration("duration", time.Since(start)))

	return string(body), nil
}

// decodeBody undoes the response's Content-Encoding. Servers send deflate
// either as zlib (RFC 1950) or as a raw stream, so both are accepted.
func decodeBody(encoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, nil
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to decode gzip response: %w", err)
		}
		defer gz.Close()
		decoded, err := io.ReadAll(gz)
		if err != nil {
			return nil, fmt.Errorf("failed to decode gzip response: %w", err)
		}
		return decoded, nil
	case "deflate":
		if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			defer zr.Close()
			if decoded, err := io.ReadAll(zr); err == nil {
				return decoded, nil
			}
		}
		fr := flate.NewReader(bytes.NewReader(body))
		defer fr.Close()
		decoded, err := io.ReadAll(fr)
		if err != nil {
			return nil, fmt.Errorf("failed to decode deflate response: %w", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("unsupported response content encoding %q", encoding)
	}
}
