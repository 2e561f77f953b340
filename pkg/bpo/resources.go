// Copyright Contributors to the Open Cluster Management project

package bpo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Resource is a market resource document.
type Resource map[string]interface{}

func (r Resource) str(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func (r Resource) ID() string                 { return r.str("id") }
func (r Resource) Label() string              { return r.str("label") }
func (r Resource) OrchState() string          { return r.str("orchState") }
func (r Resource) ResourceTypeID() string     { return r.str("resourceTypeId") }
func (r Resource) ProviderResourceID() string { return r.str("providerResourceId") }
func (r Resource) ProductID() string          { return r.str("productId") }
func (r Resource) DomainID() string           { return r.str("domainId") }

// Properties returns the properties map, never nil.
func (r Resource) Properties() map[string]interface{} {
	if p, ok := r["properties"].(map[string]interface{}); ok {
		return p
	}
	return map[string]interface{}{}
}

// Property returns properties[key] as a string, or "" when missing.
func (r Resource) Property(key string) string {
	if v, ok := r.Properties()[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

// Query filters a resource listing.
type Query struct {
	ResourceTypeID string
	DomainID       string
	Q              string // exact match filter, e.g. "properties.trace_id:abc"
	P              string // partial match filter, allows wildcards
	Obfuscate      bool
	Recursive      bool // only used for dependents and dependencies
	Limit          int
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.ResourceTypeID != "" {
		v.Set("resourceTypeId", q.ResourceTypeID)
	}
	if q.DomainID != "" {
		v.Set("domainId", q.DomainID)
	}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	if q.P != "" {
		v.Set("p", q.P)
	}
	if !q.Obfuscate {
		v.Set("obfuscate", "false")
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

type itemList struct {
	Items []Resource `json:"items"`
}

// GetResource returns a single resource by id.
func (c *Client) GetResource(ctx context.Context, id string) (Resource, error) {
	res := Resource{}
	if err := c.get(ctx, "/resources/"+url.PathEscape(id), nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetResources returns the resources that match q.
func (c *Client) GetResources(ctx context.Context, q Query) ([]Resource, error) {
	list := itemList{}
	if err := c.get(ctx, "/resources", q.values(), &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// CreateResource posts a new resource. When parentID is set a MadeOf relationship is added.
func (c *Client) CreateResource(ctx context.Context, parentID string, payload map[string]interface{}) (Resource, error) {
	res := Resource{}
	if _, err := c.do(ctx, "POST", "/resources", nil, payload, &res); err != nil {
		return nil, err
	}
	if parentID != "" {
		if err := c.AddRelationship(ctx, parentID, res.ID()); err != nil {
			return res, err
		}
	}
	return res, nil
}

// AddRelationship links target as composed by source.
func (c *Client) AddRelationship(ctx context.Context, sourceID, targetID string) error {
	body := map[string]interface{}{
		"relationshipTypeId": "tosca.relationshipTypes.MadeOf",
		"sourceId":           sourceID,
		"requirementName":    "composed",
		"targetId":           targetID,
		"capabilityName":     "composable",
		"orchState":          "active",
	}
	_, err := c.do(ctx, "POST", "/relationships", nil, body, nil)
	return err
}

// PatchResource applies a partial update to the resource.
func (c *Client) PatchResource(ctx context.Context, id string, patch map[string]interface{}) (Resource, error) {
	res := Resource{}
	if _, err := c.do(ctx, "PATCH", "/resources/"+url.PathEscape(id), nil, patch, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// PatchObserved updates observed properties without triggering an update operation.
func (c *Client) PatchObserved(ctx context.Context, id string, properties map[string]interface{}) error {
	body := map[string]interface{}{"properties": properties}
	_, err := c.do(ctx, "PATCH", "/resources/"+url.PathEscape(id)+"/observed", nil, body, nil)
	return err
}

// DeleteResource asks the platform to terminate and remove the resource.
func (c *Client) DeleteResource(ctx context.Context, id string) error {
	_, err := c.do(ctx, "DELETE", "/resources/"+url.PathEscape(id), nil, nil, nil)
	return err
}

// Dependents returns the resources that depend on id.
func (c *Client) Dependents(ctx context.Context, id string, q Query) ([]Resource, error) {
	return c.relatives(ctx, id, "dependents", q)
}

// Dependencies returns the resources id depends on.
func (c *Client) Dependencies(ctx context.Context, id string, q Query) ([]Resource, error) {
	return c.relatives(ctx, id, "dependencies", q)
}

func (c *Client) relatives(ctx context.Context, id, kind string, q Query) ([]Resource, error) {
	if q.Limit == 0 {
		q.Limit = 2000
	}
	params := q.values()
	params.Set("recursive", strconv.FormatBool(q.Recursive))

	list := itemList{}
	if err := c.get(ctx, "/resources/"+url.PathEscape(id)+"/"+kind, params, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// Products returns every product, including inactive ones. The list is cached on the client.
func (c *Client) Products(ctx context.Context) ([]Resource, error) {
	if c.products != nil {
		return c.products, nil
	}
	list := itemList{}
	if err := c.get(ctx, "/products", url.Values{"includeInactive": []string{"true"}}, &list); err != nil {
		return nil, err
	}
	c.products = list.Items
	return c.products, nil
}
