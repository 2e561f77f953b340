// Copyright Contributors to the Open Cluster Management project

// Package leader runs work on a single replica, chosen with a Kubernetes lease.
package leader

import (
	"context"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"
	klog "k8s.io/klog/v2"
)

// Lease timings.
var (
	LeaseDuration = 15 * time.Second
	RenewDeadline = 10 * time.Second
	RetryPeriod   = 2 * time.Second
)

func newLock(client kubernetes.Interface, lockName, podName, namespace string) *resourcelock.LeaseLock {
	return &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      lockName,
			Namespace: namespace,
		},
		Client: client.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}
}

// Run campaigns for the lease lockName until ctx is cancelled. fn runs while this pod holds the lease,
// and its context is cancelled when the lease is lost.
func Run(ctx context.Context, client kubernetes.Interface, lockName, podName, namespace string, fn func(context.Context)) {
	lock := newLock(client, lockName, podName, namespace)
	for {
		select {
		case <-ctx.Done():
			klog.Info("Exit leader election.")
			return
		default:
			klog.V(1).Info("Attempting to become leader.")
			leaderelection.RunOrDie(ctx, leaderelection.LeaderElectionConfig{
				Lock:            lock,
				ReleaseOnCancel: true, // Releases the lock on context cancel.
				LeaseDuration:   LeaseDuration,
				RenewDeadline:   RenewDeadline,
				RetryPeriod:     RetryPeriod,
				Callbacks: leaderelection.LeaderCallbacks{
					OnStartedLeading: func(c context.Context) {
						klog.Info("I'm the leader! Starting leader activities.")
						fn(c)
					},
					OnStoppedLeading: func() {
						klog.Info("I'm no longer the leader.")
					},
					OnNewLeader: func(currentId string) {
						if currentId != podName {
							klog.Infof("Leader is %s", currentId)
						}
					},
				},
			})
		}
	}
}
