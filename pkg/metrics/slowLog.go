// Copyright Contributors to the Open Cluster Management project
package metrics

import (
	"strconv"
	"time"

	"github.com/stolostron/circuit-reconciler/pkg/config"
	"k8s.io/klog/v2"
)

var DEFAULT_SLOW_LOG = time.Duration(config.Cfg.SlowLog) * time.Millisecond

// Record the time when a function starts and logs if the function takes more than the expected duration.
// A logAfter of 0 uses DEFAULT_SLOW_LOG. The returned function should be invoked with defer.
func SlowLog(msg string, logAfter time.Duration) func() {
	start := time.Now()
	threshold := slowLogThreshold(logAfter)

	// This function should be invoked with defer to execute at the end of the caller function.
	return func() {
		if elapsed := time.Since(start); elapsed > threshold {
			klog.Warningf("%s - %s", elapsed.Round(time.Millisecond), msg)
		}
	}
}

func slowLogThreshold(logAfter time.Duration) time.Duration {
	if logAfter > 0 {
		return logAfter
	}
	return DEFAULT_SLOW_LOG
}

// Logs the duration of a step in a process and reset the timer.
func LogStepDuration(timer *time.Time, circuit, message string) {
	klog.V(2).Infof("\t> %6s\t - [%12s] %s", time.Since(*timer).Round(time.Millisecond), circuit, message)
	*timer = time.Now()
}

// ObserveOutbound records the duration of a call to an external system.
// Use code 0 when the call failed before a response was received.
func ObserveOutbound(system string, start time.Time, code int) {
	OutboundDuration.WithLabelValues(system, strconv.Itoa(code)).Observe(time.Since(start).Seconds())
}
