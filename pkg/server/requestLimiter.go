// Copyright Contributors to the Open Cluster Management project

package server

import (
	"net/http"
	"sync"
	"time"

	klog "k8s.io/klog/v2"

	"github.com/gorilla/mux"
	"github.com/stolostron/circuit-reconciler/pkg/config"
)

var requestTracker = map[string]time.Time{}
var requestTrackerLock = sync.RWMutex{}

// requestKey identifies the circuit, resource or device a request works on.
func requestKey(r *http.Request) string {
	params := mux.Vars(r)
	for _, name := range []string{"cid", "id", "host"} {
		if v, ok := params[name]; ok {
			return v
		}
	}
	return ""
}

// Checks if we are able to accept the incoming request.
func requestLimiterMiddleware(next http.Handler) http.Handler {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := requestKey(r)

		requestTrackerLock.RLock()
		requestCount := len(requestTracker)
		klog.V(6).Info("Checking if we can process incoming request. Current requests: ", requestCount)
		timeReqReceived, foundProcessing := requestTracker[key]
		requestTrackerLock.RUnlock()

		if foundProcessing {
			klog.Warningf("Rejecting request for %s because there's a previous request processing. Duration: %s",
				key, time.Since(timeReqReceived))
			http.Error(w, "A previous request for this circuit is processing, retry later.", http.StatusTooManyRequests)
			return
		}

		if requestCount >= config.Cfg.RequestLimit {
			klog.Warningf("Too many pending requests (%d). Rejecting request for %s", requestCount, key)
			http.Error(w, "Reconciler has too many pending requests, retry later.", http.StatusTooManyRequests)
			return
		}

		requestTrackerLock.Lock()
		requestTracker[key] = time.Now()
		requestTrackerLock.Unlock()

		defer func() { // Using defer to guarantee this gets executed if there's an error processing the request.
			requestTrackerLock.Lock()
			delete(requestTracker, key)
			requestTrackerLock.Unlock()
		}()

		next.ServeHTTP(w, r)
	})
}
