// Copyright Contributors to the Open Cluster Management project

// Package fortigate is a client for the FortiOS v7 REST API. Reads of a table are cached on the
// client and every write is followed by a read, so the cache follows the device configuration.
package fortigate

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/stolostron/circuit-reconciler/pkg/config"
	"github.com/stolostron/circuit-reconciler/pkg/metrics"
	"k8s.io/klog/v2"
)

const (
	forticloudURL       = "https://www.forticloud.com/forticloudapi/v1/fgt/"
	maxFortiCloudErrors = 5
	readAttempts        = 3
)

// ErrFortiCloudErrors is returned once the FortiCloud proxy has failed too often to send more requests.
var ErrFortiCloudErrors = errors.New("request not sent, FortiCloud errors too high")

// StatusError is returned when the device answers with a status above 299.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// Params are the query parameters accepted by FortiOS reads.
type Params struct {
	Filter string
	Format string
	Sort   string
	Start  string
	VDOM   string
}

func (p Params) values() url.Values {
	v := url.Values{}
	for k, val := range map[string]string{"filter": p.Filter, "format": p.Format, "sort": p.Sort, "start": p.Start, "vdom": p.VDOM} {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// Entry is one entry of a table.
type Entry = map[string]interface{}

// Client talks to one FortiGate, directly or through the FortiCloud proxy.
type Client struct {
	host  string
	port  int
	token string
	http  *http.Client

	cmdbBase    string
	monitorBase string
	retryDelay  time.Duration // wait after a rate limited answer

	mu               sync.Mutex
	cache            map[string][]Entry // table name -> last read entries
	forticloud       bool
	fortiCloudErrors int
	status           *SystemStatus
}

// NewClient builds a client for the device at host from the global configuration.
// Device certificates are self signed and are not verified.
func NewClient(host string) *Client {
	httpClient := &http.Client{
		Timeout: time.Duration(config.Cfg.FortiGateTimeoutMS) * time.Millisecond,
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		},
	}
	return NewClientWithOptions(fmt.Sprintf("https://%s:%d", host, config.Cfg.FortiGatePort),
		config.Cfg.FortiGateToken, httpClient)
}

// NewClientWithOptions builds a client for the device answering at baseURL.
func NewClientWithOptions(baseURL, token string, httpClient *http.Client) *Client {
	u, _ := url.Parse(baseURL)
	c := &Client{
		token:      token,
		http:       httpClient,
		retryDelay: time.Second,
		cache:      map[string][]Entry{},
	}
	if u != nil {
		c.host = u.Hostname()
		c.port, _ = strconv.Atoi(u.Port())
	}
	c.setBase(strings.TrimSuffix(baseURL, "/") + "/api/v2/")
	return c
}

func (c *Client) setBase(base string) {
	c.cmdbBase = base + APICmdb
	c.monitorBase = base + APIMonitor
}

// Host returns the address of the device.
func (c *Client) Host() string {
	return c.host
}

func (c *Client) url(api, path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if api == APIMonitor {
		return c.monitorBase + "/" + path
	}
	return c.cmdbBase + "/" + path
}

func (c *Client) countFortiCloudError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.forticloud {
		c.fortiCloudErrors++
	}
}

func (c *Client) fortiCloudBlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forticloud && c.fortiCloudErrors > maxFortiCloudErrors
}

// send performs a request. Reads are attempted 3 times and writes once. Timeouts and rate limited
// answers use up an attempt, other failures end the request. It returns the decoded JSON body,
// the body text when it is not JSON, or nil when the body is empty.
func (c *Client) send(ctx context.Context, method, target string, params Params, body interface{}) (interface{}, error) {
	defer metrics.SlowLog(fmt.Sprintf("fortigate %s %s", method, target), 0)()

	attempts := 1
	if method == http.MethodGet {
		attempts = readAttempts
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, err
		}
	}
	if q := params.values().Encode(); q != "" {
		target += "?" + q
	}

	var lastErr error
	for try := 0; try < attempts; try++ {
		if c.fortiCloudBlocked() {
			klog.Warningf("%s %s: %s", method, target, ErrFortiCloudErrors)
			return nil, ErrFortiCloudErrors
		}
		klog.V(3).Infof("> %s | %s", target, method)
		klog.V(5).Infof("Payload: %s", string(payload))

		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Encoding", "deflate")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			metrics.ObserveOutbound("fortigate", start, 0)
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() && ctx.Err() == nil {
				klog.Warning(">> Timeout, retry")
				lastErr = err
				continue
			}
			klog.Warningf(">> Failed to establish a new connection: %v", err)
			return nil, err
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		metrics.ObserveOutbound("fortigate", start, resp.StatusCode)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode < 300:
			klog.V(3).Infof(">> Response: %s %d", method, resp.StatusCode)
			return decode(data), nil
		case resp.StatusCode == http.StatusTooManyRequests:
			klog.Warningf(">> Response: %s %d", method, resp.StatusCode)
			c.countFortiCloudError()
			lastErr = &StatusError{Method: method, URL: target, Code: resp.StatusCode, Body: string(data)}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		default:
			klog.Warningf(">> Response: %s %d - %s", method, resp.StatusCode, string(data))
			c.countFortiCloudError()
			return nil, &StatusError{Method: method, URL: target, Code: resp.StatusCode, Body: string(data)}
		}
	}
	klog.Warningf(">> Unable to get response after all attempts: %s %s", method, target)
	return nil, lastErr
}

func decode(data []byte) interface{} {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	return v
}
