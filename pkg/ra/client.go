// Copyright Contributors to the Open Cluster Management project

// Package ra executes command files on devices through the resource adapter (RA) REST interface,
// bypassing the market. Device sessions must already be established.
package ra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/stolostron/circuit-reconciler/pkg/bpo"
	"github.com/stolostron/circuit-reconciler/pkg/categorized"
	"github.com/stolostron/circuit-reconciler/pkg/config"
	"github.com/stolostron/circuit-reconciler/pkg/metrics"
	"github.com/tidwall/gjson"
	"k8s.io/klog/v2"
)

const ResourceTypeCommand = "execute-resource-type-command.json"

var (
	urlMainRegex = regexp.MustCompile(`([^\n\r]+/v[0-9]/)[^\n\r]+/(bpo_[^/]+)`)
	pridRegex    = regexp.MustCompile(`[^:]+::([^\n\r/]+)`)
)

// Resources is the part of the market API the RA client needs to resolve devices.
type Resources interface {
	GetResource(ctx context.Context, id string) (bpo.Resource, error)
	GetResources(ctx context.Context, q bpo.Query) ([]bpo.Resource, error)
}

// Client executes RA commands.
type Client struct {
	market     Resources
	http       *http.Client
	cache      URLCache
	sessionURL string
	deviceURL  string
	retries    int
	wait       time.Duration
}

// NewClient builds a client from the global configuration.
func NewClient(market Resources, cache URLCache) *Client {
	return NewClientWithOptions(market, cache, config.Cfg.RASessionURL, config.Cfg.RADeviceURL,
		config.Cfg.NumberOfRetries, time.Duration(config.Cfg.WaitSeconds)*time.Second)
}

func NewClientWithOptions(market Resources, cache URLCache, sessionURL, deviceURL string, retries int,
	wait time.Duration) *Client {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Client{
		market:     market,
		http:       &http.Client{Timeout: 5 * time.Minute},
		cache:      cache,
		sessionURL: sessionURL,
		deviceURL:  deviceURL,
		retries:    retries,
		wait:       wait,
	}
}

// Response of a command execution: {"command": ..., "result": ..., "parameters": ...}.
type Response struct {
	Code int
	Body []byte
}

// Result returns the "result" member of the response.
func (r *Response) Result() gjson.Result {
	return gjson.GetBytes(r.Body, "result")
}

// Decode unmarshals the whole body into out.
func (r *Response) Decode(out interface{}) error {
	return json.Unmarshal(r.Body, out)
}

// Execute runs commandFile on the device. device is a session id ("bpo_..."), a resource id,
// a label, an FQDN or an ip address.
func (c *Client) Execute(ctx context.Context, device, commandFile string, params map[string]interface{}) (*Response, error) {
	var url string
	var err error
	if strings.HasPrefix(device, "bpo_") {
		url, err = c.sessionDeviceURL(ctx, device)
	} else {
		url, err = c.DeviceURL(ctx, device)
	}
	if err != nil {
		return nil, err
	}
	return c.post(ctx, url+"/execute", commandFile, params)
}

// ExecuteOnResource runs commandFile on the device behind a NetworkFunction resource.
func (c *Client) ExecuteOnResource(ctx context.Context, nf bpo.Resource, commandFile string, params map[string]interface{}) (*Response, error) {
	url, err := c.ResourceURL(ctx, nf)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, url+"/execute", commandFile, params)
}

// DeviceURL resolves and caches the RA url of a device given by name, ip or resource id.
func (c *Client) DeviceURL(ctx context.Context, device string) (string, error) {
	if url, ok := c.cache.Get(ctx, device); ok {
		return url, nil
	}
	sessionID, err := c.SessionID(ctx, device)
	if err != nil {
		return "", err
	}
	url, err := c.sessionDeviceURL(ctx, sessionID)
	if err != nil {
		return "", err
	}
	c.cache.Set(ctx, device, url)
	return url, nil
}

// ResourceURL resolves the RA url of a NetworkFunction and caches it under all of its keys.
func (c *Client) ResourceURL(ctx context.Context, nf bpo.Resource) (string, error) {
	sessionID := nf.ProviderResourceID()
	if sessionID == "" {
		return "", fmt.Errorf("Unable to find device resource for %s", nf.ID())
	}
	url, err := c.sessionDeviceURL(ctx, sessionID)
	if err != nil {
		return "", err
	}
	for _, key := range []string{sessionID, nf.Label(), nf.ID(), nf.Property("ipAddress")} {
		c.cache.Set(ctx, key, url)
	}
	return url, nil
}

// SessionID returns the providerResourceId of the device's NetworkFunction.
func (c *Client) SessionID(ctx context.Context, device string) (string, error) {
	klog.V(4).Infof("Device to get session id: %s", device)
	var nf bpo.Resource
	if bpo.IsUUID(device) {
		res, err := c.market.GetResource(ctx, device)
		if err != nil {
			return "", fmt.Errorf("Unable to find device resource for %s: %w", device, err)
		}
		nf = res
	} else {
		res, ok, err := c.NetworkFunctionByHost(ctx, device)
		if err != nil {
			return "", err
		}
		if ok {
			nf = res
		}
	}
	if nf == nil || nf.ProviderResourceID() == "" {
		return "", fmt.Errorf("Unable to find device resource for %s", device)
	}
	klog.V(4).Infof("Session ID returned: %s", nf.ProviderResourceID())
	return nf.ProviderResourceID(), nil
}

// NetworkFunctionByHost returns the NetworkFunction whose ipAddress or connection hostname is host.
// The market filters on each property in turn.
func (c *Client) NetworkFunctionByHost(ctx context.Context, host string) (bpo.Resource, bool, error) {
	for _, prop := range []string{"properties.ipAddress", "properties.connection.hostname"} {
		nfs, err := c.market.GetResources(ctx, bpo.Query{ResourceTypeID: bpo.NetworkFunctionType, Q: prop + ":" + host, Limit: 5})
		if err != nil {
			return nil, false, fmt.Errorf("Error when attempting to get Network Functions from server: %w", err)
		}
		for _, nf := range nfs {
			for _, h := range hostsOf(nf) {
				if h == host {
					return nf, true, nil
				}
			}
		}
	}
	return nil, false, nil
}

func hostsOf(nf bpo.Resource) []string {
	hosts := []string{}
	props := nf.Properties()
	if ip, ok := props["ipAddress"].(string); ok {
		hosts = append(hosts, ip)
	}
	if conn, ok := props["connection"].(map[string]interface{}); ok {
		if h, ok := conn["hostname"].(string); ok {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// DomainURL returns the RA domain url of the device, e.g. ".../api/v1/domains/{domain}".
func (c *Client) DomainURL(ctx context.Context, device string) (string, error) {
	var url string
	var err error
	if strings.HasPrefix(device, "bpo_") {
		url, err = c.sessionDeviceURL(ctx, device)
	} else {
		url, err = c.DeviceURL(ctx, device)
	}
	if err != nil {
		return "", err
	}
	return domainURL(url)
}

func domainURL(deviceURL string) (string, error) {
	match := urlMainRegex.FindStringSubmatch(deviceURL)
	if match == nil {
		return "", fmt.Errorf("unable to derive domain url from %s", deviceURL)
	}
	parts := strings.Split(match[2], "_")
	if len(parts) < 2 {
		return "", fmt.Errorf("unable to derive domain from session %s", match[2])
	}
	return match[1] + "domains/" + parts[1], nil
}

// sessionDeviceURL checks the session is known to the RA and returns the device url for it.
func (c *Client) sessionDeviceURL(ctx context.Context, sessionID string) (string, error) {
	if url, ok := c.cache.Get(ctx, sessionID); ok {
		return url, nil
	}
	if err := c.getWithRetry(ctx, c.sessionURL+sessionID); err != nil {
		return "", err
	}
	url := c.deviceURL + sessionID
	c.cache.Set(ctx, sessionID, url)
	return url, nil
}

func (c *Client) getWithRetry(ctx context.Context, url string) error {
	code, reason := 0, ""
	for try := 0; try == 0 || try <= c.retries; try++ {
		if try > 0 {
			klog.Warningf("Failure in executing command to RA, trying again in %s.", c.wait)
			if err := sleep(ctx, c.wait); err != nil {
				return err
			}
		}
		code, reason, _ = c.send(ctx, http.MethodGet, url, nil)
		if code > 0 && code < 300 {
			return nil
		}
	}
	return fmt.Errorf("Error making URL call.  Code: %d, Response: %s", code, reason)
}

func (c *Client) post(ctx context.Context, url, commandFile string, params map[string]interface{}) (*Response, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	payload, err := json.Marshal(map[string]interface{}{"command": commandFile, "parameters": params})
	if err != nil {
		return nil, err
	}
	klog.V(3).Infof("RA cut-through url: %s command: %s", url, commandFile)

	code, reason := 0, "No response when attempting RA Post with retry"
	for try := 0; try == 0 || try <= c.retries; try++ {
		if try > 0 {
			klog.Warningf("Failure in executing command to RA, trying again in %s.", c.wait)
			if err := sleep(ctx, c.wait); err != nil {
				return nil, err
			}
		}
		var body []byte
		code, reason, body = c.send(ctx, http.MethodPost, url, payload)
		klog.V(5).Infof("Response: try_number=%d, status_code=%d, reason=%s, body=%s", try+1, code, reason, string(body))
		if code > 0 && code < 300 {
			return &Response{Code: code, Body: body}, nil
		}
	}
	return nil, categorized.MDSO(categorized.SystemError, "RA Post",
		fmt.Sprintf("command: %s code: %d response: %s", commandFile, code, reason))
}

// send returns status code 0 and the transport error text when no response was received.
func (c *Client) send(ctx context.Context, method, url string, payload []byte) (int, string, []byte) {
	defer metrics.SlowLog(fmt.Sprintf("ra %s %s", method, url), 0)()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err.Error(), nil
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveOutbound("ra", start, 0)
		return 0, err.Error(), nil
	}
	defer resp.Body.Close()
	metrics.ObserveOutbound("ra", start, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, http.StatusText(resp.StatusCode), body
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
