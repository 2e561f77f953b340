// Copyright Contributors to the Open Cluster Management project

package ra

import (
	"context"
	"strings"
)

// ProviderID reduces a market provider resource id ("bpo_...::TPE_1") to the RA id ("TPE_1").
func ProviderID(prid string) string {
	if !strings.HasPrefix(prid, "bpo_") {
		return prid
	}
	if match := pridRegex.FindStringSubmatch(prid); match != nil {
		return match[1]
	}
	return prid
}

func baseData(prid, rtype string) map[string]interface{} {
	id := ProviderID(prid)
	return map[string]interface{}{
		"resourceType": rtype,
		"id":           id,
		"name":         id,
		"data":         map[string]interface{}{"id": id, "name": id},
	}
}

// ListResources lists the RA resources of rtype on the device.
func (c *Client) ListResources(ctx context.Context, device, rtype string) (*Response, error) {
	return c.Execute(ctx, device, ResourceTypeCommand, map[string]interface{}{"resourceType": rtype, "command": "LIST"})
}

// GetResource reads one RA resource from the device.
func (c *Client) GetResource(ctx context.Context, device, prid, rtype string) (*Response, error) {
	data := baseData(prid, rtype)
	data["command"] = "GET"
	return c.Execute(ctx, device, ResourceTypeCommand, data)
}

// UpdateResource replaces an RA resource. data must hold the full resource.
func (c *Client) UpdateResource(ctx context.Context, device, prid, rtype string, data map[string]interface{}) (*Response, error) {
	params := map[string]interface{}{}
	for k, v := range data {
		params[k] = v
	}
	for k, v := range baseData(prid, rtype) {
		params[k] = v
	}
	params["command"] = "PUT"
	return c.Execute(ctx, device, ResourceTypeCommand, params)
}

// CreateResource creates an RA resource of rtype on the device.
func (c *Client) CreateResource(ctx context.Context, device, rtype string, data map[string]interface{}) (*Response, error) {
	params := map[string]interface{}{}
	for k, v := range data {
		params[k] = v
	}
	params["resourceType"] = rtype
	params["command"] = "POST"
	return c.Execute(ctx, device, ResourceTypeCommand, params)
}

// DeleteResource removes an RA resource from the device.
func (c *Client) DeleteResource(ctx context.Context, device, prid, rtype string) (*Response, error) {
	data := baseData(prid, rtype)
	data["command"] = "DELETE"
	return c.Execute(ctx, device, ResourceTypeCommand, data)
}
