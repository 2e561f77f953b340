// Copyright Contributors to the Open Cluster Management project

package server

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stolostron/circuit-reconciler/pkg/config"
	"github.com/stolostron/circuit-reconciler/pkg/disconnect"
	"github.com/stolostron/circuit-reconciler/pkg/fortigate"
	"github.com/stolostron/circuit-reconciler/pkg/granite"
	"github.com/stolostron/circuit-reconciler/pkg/metrics"
	"github.com/stolostron/circuit-reconciler/pkg/model"
	"github.com/stolostron/circuit-reconciler/pkg/plan"
	"k8s.io/klog/v2"
)

// Reconciler compares the design of a circuit with the network.
type Reconciler interface {
	Reconcile(ctx context.Context, cid string, req model.CompareRequest) (model.CompareResponse, error)
}

// PlanRunner runs the plans registered for resource types.
type PlanRunner interface {
	Lookup(resourceType, operation string) (string, plan.Process, bool)
	Run(ctx context.Context, req model.PlanRequest) model.PlanResponse
}

// StatusReader reads the status of a FortiGate.
type StatusReader interface {
	SystemStatus(ctx context.Context) (*fortigate.SystemStatus, error)
}

type ServerConfig struct {
	Dao        *granite.DAO
	Reconciler Reconciler
	Designs    disconnect.DesignReader
	Plans      PlanRunner
	FortiGate  func(host string) StatusReader // Defaults to a client built from config.
}

// Router builds the routes served by the reconciler.
func (s *ServerConfig) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/liveness", s.LivenessProbe).Methods("GET")
	router.HandleFunc("/readiness", s.ReadinessProbe).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(metrics.PromRegistry, promhttp.HandlerOpts{})).Methods("GET")

	// Add middleware to the /reconciler subroute.
	apiRouter := router.PathPrefix("/reconciler").Subrouter()
	apiRouter.Use(metrics.PrometheusMiddleware)
	apiRouter.Use(requestLimiterMiddleware)
	apiRouter.Use(planLimiterMiddleware)
	apiRouter.HandleFunc("/disconnect/{cid}/compare", s.Compare).Methods("POST").Name("compare")
	apiRouter.HandleFunc("/disconnect/{cid}/jobtype", s.JobType).Methods("GET").Name("jobtype")
	apiRouter.HandleFunc("/disconnect/{cid}/reports", s.ReportCount).Methods("GET").Name("reports")
	apiRouter.HandleFunc("/plans/{type}/{id}/run", s.RunPlan).Methods("POST").Name("plan")
	apiRouter.HandleFunc("/fortigate/{host}/status", s.FortiGateStatus).Methods("GET").Name("fortigate")
	return router
}

func (s *ServerConfig) StartAndListen(ctx context.Context) {
	// Configure TLS
	cfg := &tls.Config{
		MinVersion:               tls.VersionTLS12,
		CurvePreferences:         []tls.CurveID{tls.CurveP521, tls.CurveP384, tls.CurveP256},
		PreferServerCipherSuites: true,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		},
	}
	srv := &http.Server{
		Addr:              config.Cfg.ServerAddress,
		Handler:           s.Router(),
		TLSConfig:         cfg,
		ReadHeaderTimeout: time.Duration(config.Cfg.HTTPTimeout) * time.Millisecond,
		ReadTimeout:       time.Duration(config.Cfg.HTTPTimeout) * time.Millisecond,
		WriteTimeout:      time.Duration(config.Cfg.HTTPTimeout) * time.Millisecond,
		TLSNextProto:      make(map[string]func(*http.Server, *tls.Conn, http.Handler)),
	}

	// Start the server
	go func() {
		klog.Info("Listening on: ", srv.Addr)
		// ErrServerClosed is returned on graceful close.
		if err := srv.ListenAndServeTLS("./sslcert/tls.crt", "./sslcert/tls.key"); err != http.ErrServerClosed {
			if config.Cfg.DevelopmentMode {
				klog.Fatal(err, ". If missing certificates in development mode, use ./setup.sh to generate.")
			} else {
				klog.Fatal(err, ". Encountered while starting the server.")
			}
		}
	}()

	// Wait for cancel signal
	<-ctx.Done()
	klog.Warning("Stopping the server.")
	ctxWithTimeout, ctxCancel := context.WithTimeout(context.Background(), time.Duration(5*time.Second))
	if err := srv.Shutdown(ctxWithTimeout); err != nil {
		klog.Error("Encountered error stopping the server. ", err)
	} else {
		klog.Warning("Server stopped.")
	}
	ctxCancel()
}
