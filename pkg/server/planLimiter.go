// Copyright Contributors to the Open Cluster Management project

package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/stolostron/circuit-reconciler/pkg/config"
	"k8s.io/klog/v2"
)

var planCountTracker int
var planCountTrackerLock = sync.RWMutex{}

// Checks if we are able to start another plan. Plans hold a request for minutes while devices are onboarded.
func planLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route == nil || route.GetName() != "plan" {
			next.ServeHTTP(w, r)
			return
		}

		planCountTrackerLock.Lock()
		if planCountTracker >= config.Cfg.PlanLimit {
			planCountTrackerLock.Unlock()
			klog.Warningf("Rejecting plan for %s because there's too many plans running (%d).", mux.Vars(r)["id"], config.Cfg.PlanLimit)
			http.Error(w, "Too many plans currently running, retry later.", http.StatusTooManyRequests)
			return
		}
		planCountTracker++
		planCountTrackerLock.Unlock()

		defer func() {
			planCountTrackerLock.Lock()
			planCountTracker--
			planCountTrackerLock.Unlock()
		}()

		next.ServeHTTP(w, r)
	})
}
