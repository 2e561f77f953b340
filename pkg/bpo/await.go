// Copyright Contributors to the Open Cluster Management project

package bpo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/klog/v2"
)

// ErrTimeout is returned when a resource does not reach the awaited state in time.
var ErrTimeout = errors.New("timed out")

// ResourceFailedError is returned when an awaited resource lands in orchState failed.
type ResourceFailedError struct {
	ID     string
	Reason string
}

func (e *ResourceFailedError) Error() string {
	return fmt.Sprintf("resource %s is in failed state: %s", e.ID, e.Reason)
}

// AwaitOrchState polls the resource until its orchState is one of states.
// It fails when the resource is failed and failed is not awaited, when it disappears, or on timeout.
func (c *Client) AwaitOrchState(ctx context.Context, id string, states []string, timeout, poll time.Duration) (Resource, error) {
	wanted := map[string]bool{}
	for _, s := range states {
		wanted[s] = true
	}

	deadline := time.Now().Add(timeout)
	for {
		res, err := c.GetResource(ctx, id)
		if err != nil {
			return nil, err
		}
		state := res.OrchState()
		if wanted[state] {
			return res, nil
		}
		if state == StateFailed {
			return res, &ResourceFailedError{ID: id, Reason: res.str("reason")}
		}
		if time.Now().Add(poll).After(deadline) {
			return res, fmt.Errorf("awaiting %v for resource %s (last state %s): %w", states, id, state, ErrTimeout)
		}
		klog.V(4).Infof("Resource %s is %s, waiting %s for %v", id, state, poll, states)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(poll):
		}
	}
}

// AwaitTermination waits until the resource is gone or in orchState unknown.
func (c *Client) AwaitTermination(ctx context.Context, id string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		res, err := c.GetResource(ctx, id)
		switch {
		case errors.Is(err, ErrNotFound):
			return nil
		case err != nil:
			klog.V(3).Infof("Unable to check termination of %s: %s", id, err)
		case res.OrchState() == StateUnknown:
			klog.V(3).Infof("Resource %s is in unknown state", id)
			return nil
		case res.OrchState() == StateFailed:
			return &ResourceFailedError{ID: id, Reason: res.str("reason")}
		}
		if time.Now().Add(c.poll).After(deadline) {
			return fmt.Errorf("awaiting termination of %s: %w", id, ErrTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.poll):
		}
	}
}
