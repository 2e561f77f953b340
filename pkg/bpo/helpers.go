// Copyright Contributors to the Open Cluster Management project

package bpo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/stolostron/circuit-reconciler/pkg/categorized"
	"k8s.io/klog/v2"
)

var uuidRegex = regexp.MustCompile(`(?i)^[\da-f]{8}-([\da-f]{4}-){3}[\da-f]{12}$`)

// IsUUID reports whether s is a canonical UUID string.
func IsUUID(s string) bool {
	return uuidRegex.MatchString(s)
}

// BuiltInProduct returns the first product of resourceType in the built-in domain.
func (c *Client) BuiltInProduct(ctx context.Context, resourceType string) (Resource, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.ResourceTypeID() == resourceType && p.DomainID() == BuiltInDomainID {
			return p, nil
		}
	}
	return nil, categorized.MDSO(categorized.SystemError, "No Products for Resource Type",
		"resource type: "+resourceType)
}

// ResourcesByLabelOrUUID returns the resource when idOrLabel is a UUID, otherwise the resources with that label.
func (c *Client) ResourcesByLabelOrUUID(ctx context.Context, domainID, resourceType, idOrLabel string) ([]Resource, error) {
	if IsUUID(idOrLabel) {
		res, err := c.GetResource(ctx, idOrLabel)
		if err != nil {
			return nil, err
		}
		return []Resource{res}, nil
	}
	return c.GetResources(ctx, Query{ResourceTypeID: resourceType, DomainID: domainID, Q: "label:" + idOrLabel})
}

// ActiveResources returns resources of resourceType in orchState active. domainID defaults to built-in.
func (c *Client) ActiveResources(ctx context.Context, resourceType, domainID string) ([]Resource, error) {
	if domainID == "" {
		domainID = BuiltInDomainID
	}
	return c.GetResources(ctx, Query{ResourceTypeID: resourceType, DomainID: domainID, Q: "orchState:active"})
}

// NetworkFunctionByHostOrIP looks up the NetworkFunction whose ipAddress matches the fqdn, its tid or ip.
// With requireActive only an available function is returned, awaiting activating ones first.
// ok is false when nothing matched.
func (c *Client) NetworkFunctionByHostOrIP(ctx context.Context, host, ip string, requireActive bool) (Resource, bool, error) {
	hostnames := []string{host}
	if strings.Index(host, ".") > 0 {
		hostnames = append(hostnames, strings.Split(host, ".")[0])
	}
	if ip != "" {
		hostnames = append(hostnames, ip)
	}

	found := []Resource{}
	for _, name := range hostnames {
		if name == "" || name == "DHCP" {
			continue
		}
		klog.V(3).Infof("Looking up network function for hostname: %s", name)
		nfs, err := c.GetResources(ctx, Query{ResourceTypeID: NetworkFunctionType, Q: "properties.ipAddress:" + name})
		if err != nil {
			return nil, false, err
		}
		if len(nfs) == 0 {
			continue
		}
		if !requireActive {
			return nfs[0], true, nil
		}
		found = append(found, nfs...)
	}

	if requireActive {
		for _, nf := range found {
			if nf.OrchState() == StateActivating {
				awaited, err := c.AwaitOrchState(ctx, nf.ID(), []string{StateActive}, 90*time.Second, c.poll)
				if err != nil {
					klog.Warningf("Network function %s failed to activate: %s", nf.ID(), err)
					continue
				}
				nf = awaited
			}
			if nf.Property("communicationState") == "AVAILABLE" {
				return nf, true, nil
			}
		}
	}
	klog.V(2).Infof("No network functions found for %v", hostnames)
	return nil, false, nil
}

// NetworkFunctionConnectionType returns the session type of the function, "cli" or "netconf".
func NetworkFunctionConnectionType(nf Resource) string {
	auth, ok := nf.Properties()["authentication"].(map[string]interface{})
	if !ok {
		return ""
	}
	for _, kind := range []string{"cli", "netconf"} {
		if _, ok := auth[kind]; ok {
			return kind
		}
	}
	for kind := range auth {
		return kind
	}
	return ""
}

// AssociatedNetworkService returns the NetworkService depending on the resource,
// falling back to the service with the same circuit_id. ok is false when there is none.
func (c *Client) AssociatedNetworkService(ctx context.Context, res Resource) (Resource, bool, error) {
	services, err := c.Dependents(ctx, res.ID(), Query{ResourceTypeID: NetworkServiceType, Recursive: true})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	if len(services) > 0 {
		return services[0], true, nil
	}

	circuitID := res.Property("circuit_id")
	if circuitID == "" {
		klog.V(3).Info("Resource has no circuit_id. Skipping lookup of the network service.")
		return nil, false, nil
	}
	services, err = c.GetResources(ctx, Query{ResourceTypeID: NetworkServiceType, Q: "label:" + circuitID})
	if err != nil {
		klog.Infof("Unable to get network service for circuit %s: %s", circuitID, err)
		return nil, false, nil
	}
	if len(services) == 0 {
		return nil, false, nil
	}
	return services[0], true, nil
}

// CreateActiveResource creates a resource under parentID and, when waitActive is set, waits up to
// timeout for it to become active.
func (c *Client) CreateActiveResource(ctx context.Context, parentID string, payload map[string]interface{},
	waitActive bool, timeout time.Duration) (Resource, error) {
	label, _ := payload["label"].(string)
	klog.V(1).Infof("Creating %s", label)

	res, err := c.CreateResource(ctx, parentID, payload)
	if err != nil {
		return nil, categorized.MDSO(categorized.SystemError, categorized.ResourceCreate,
			fmt.Sprintf("unable to create resource: %s error: %s", label, err))
	}
	if !waitActive {
		return c.GetResource(ctx, res.ID())
	}
	return c.AwaitOrchState(ctx, res.ID(), []string{StateActive}, timeout, c.poll)
}
