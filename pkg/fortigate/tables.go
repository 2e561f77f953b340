// Copyright Contributors to the Open Cluster Management project

package fortigate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"k8s.io/klog/v2"
)

func table(name string) (Table, error) {
	t, ok := Lookup(name)
	if !ok {
		return Table{}, fmt.Errorf("unknown FortiGate table: %s", name)
	}
	return t, nil
}

// results reads the "results" member of a response as a list of entries.
func results(resp interface{}) []Entry {
	body, ok := resp.(map[string]interface{})
	if !ok {
		return nil
	}
	switch r := body["results"].(type) {
	case []interface{}:
		entries := make([]Entry, 0, len(r))
		for _, e := range r {
			if m, ok := e.(map[string]interface{}); ok {
				entries = append(entries, m)
			}
		}
		return entries
	case map[string]interface{}:
		return []Entry{r}
	}
	return nil
}

// Get reads the table and caches its entries. A settings table reads as a single entry.
func (c *Client) Get(ctx context.Context, name string, params Params) ([]Entry, error) {
	t, err := table(name)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, http.MethodGet, c.url(t.API, t.Path), params, nil)
	if err != nil {
		return nil, err
	}
	entries := results(resp)
	c.mu.Lock()
	c.cache[name] = entries
	c.mu.Unlock()
	return entries, nil
}

// Cached returns the entries of the last read of the table. ok is false when it was never read.
func (c *Client) Cached(name string) ([]Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, ok := c.cache[name]
	return entries, ok
}

// find reports whether an entry with the key exists, reading the table when it is not cached.
func (c *Client) find(ctx context.Context, t Table, key, vdom string) (bool, error) {
	entries, ok := c.Cached(t.Name)
	if !ok {
		var err error
		if entries, err = c.Get(ctx, t.Name, Params{VDOM: vdom}); err != nil {
			return false, err
		}
	}
	for _, e := range entries {
		if fmt.Sprint(e[t.Key]) == key {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) refresh(ctx context.Context, name, vdom string) {
	if _, err := c.Get(ctx, name, Params{VDOM: vdom}); err != nil {
		klog.Warningf("Unable to refresh FortiGate table %s: %v", name, err)
	}
}

// Config writes entry to the table. The entry identified by key is updated when it exists, otherwise
// entry is added. key defaults to the key attribute of entry and differs from it when renaming.
// Settings tables are always updated in place.
func (c *Client) Config(ctx context.Context, name, key string, entry Entry, vdom string) (interface{}, error) {
	t, err := table(name)
	if err != nil {
		return nil, err
	}
	if t.API != APICmdb {
		return nil, fmt.Errorf("FortiGate table %s is read only", name)
	}
	params := Params{VDOM: vdom}

	if t.Singleton() {
		resp, err := c.send(ctx, http.MethodPut, c.url(t.API, t.Path), params, entry)
		c.refresh(ctx, name, vdom)
		return resp, err
	}

	if key == "" {
		if v, ok := entry[t.Key]; ok && v != nil {
			key = fmt.Sprint(v)
		}
	}
	exists := false
	if key != "" {
		if exists, err = c.find(ctx, t, key, vdom); err != nil {
			return nil, err
		}
	}

	var resp interface{}
	if exists {
		resp, err = c.send(ctx, http.MethodPut, c.url(t.API, t.Path)+"/"+url.PathEscape(key), params, entry)
	} else {
		resp, err = c.send(ctx, http.MethodPost, c.url(t.API, t.Path), params, entry)
	}
	c.refresh(ctx, name, vdom)
	return resp, err
}

// Delete removes the entry identified by key. A missing entry is only logged.
func (c *Client) Delete(ctx context.Context, name, key, vdom string) (interface{}, error) {
	t, err := table(name)
	if err != nil {
		return nil, err
	}
	if t.Singleton() || t.API != APICmdb {
		return nil, fmt.Errorf("entries of FortiGate table %s can not be deleted", name)
	}
	exists, err := c.find(ctx, t, key, vdom)
	if err != nil {
		return nil, err
	}
	if !exists {
		klog.Warningf("FortiGate %s entry %s does not exist", name, key)
		return nil, nil
	}
	resp, err := c.send(ctx, http.MethodDelete, c.url(t.API, t.Path)+"/"+url.PathEscape(key), Params{VDOM: vdom}, nil)
	if err != nil {
		return nil, err
	}
	c.refresh(ctx, name, vdom)
	return resp, nil
}
