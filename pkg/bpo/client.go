// Copyright Contributors to the Open Cluster Management project

// Package bpo is a client for the orchestration platform market API (resources, products and relationships).
package bpo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stolostron/circuit-reconciler/pkg/config"
	"github.com/stolostron/circuit-reconciler/pkg/metrics"
	"k8s.io/klog/v2"
)

// ErrNotFound is returned when the platform answers 404.
var ErrNotFound = errors.New("resource not found")

// StatusError is returned for any other non-2xx answer.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client talks to the market API.
type Client struct {
	baseURL string
	token   string
	tenant  string
	http    *http.Client
	retries int
	wait    time.Duration
	poll    time.Duration // interval between state checks while awaiting a resource

	products []Resource // cached product list, loaded on first use
}

// NewClient builds a client from the global configuration.
func NewClient() *Client {
	return NewClientWithOptions(config.Cfg.BPOURL, config.Cfg.BPOToken, config.Cfg.BPOTenantID,
		config.Cfg.NumberOfRetries, time.Duration(config.Cfg.WaitSeconds)*time.Second)
}

// NewClientWithOptions builds a client with explicit settings.
func NewClientWithOptions(baseURL, token, tenant string, retries int, wait time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		tenant:  tenant,
		http:    &http.Client{Timeout: 2 * time.Minute},
		retries: retries,
		wait:    wait,
		poll:    5 * time.Second,
	}
}

// BaseURL returns the market API root used by the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get performs an idempotent read. Transport errors and 5xx answers are retried
// c.retries times with a fixed delay.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			klog.V(3).Infof("Retrying GET %s (attempt %d of %d) after: %s", path, attempt+1, c.retries+1, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.wait):
			}
		}
		var code int
		code, err = c.do(ctx, http.MethodGet, path, params, nil, out)
		if err == nil || !retryable(code) {
			return err
		}
	}
	return err
}

func retryable(code int) bool {
	return code == 0 || code >= 500
}

// do sends a single request. The returned code is 0 when no response was received.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out interface{}) (int, error) {
	defer metrics.SlowLog(fmt.Sprintf("bpo %s %s", method, path), 0)()

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(payload)
		klog.V(5).Infof("%s %s body: %s", method, target, string(payload))
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.tenant != "" {
		req.Header.Set("X-Tenant-Id", c.tenant)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveOutbound("bpo", start, 0)
		return 0, err
	}
	defer resp.Body.Close()
	metrics.ObserveOutbound("bpo", start, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode >= 300 {
		return resp.StatusCode, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(data)}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}
