// Copyright Contributors to the Open Cluster Management project

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stolostron/circuit-reconciler/pkg/bpo"
	"github.com/stolostron/circuit-reconciler/pkg/compare"
	"github.com/stolostron/circuit-reconciler/pkg/config"
	"github.com/stolostron/circuit-reconciler/pkg/disconnect"
	"github.com/stolostron/circuit-reconciler/pkg/granite"
	"github.com/stolostron/circuit-reconciler/pkg/leader"
	"github.com/stolostron/circuit-reconciler/pkg/mq"
	"github.com/stolostron/circuit-reconciler/pkg/plan"
	"github.com/stolostron/circuit-reconciler/pkg/ra"
	"github.com/stolostron/circuit-reconciler/pkg/server"
	"github.com/stolostron/circuit-reconciler/pkg/slm"
	"k8s.io/klog/v2"
)

func main() {
	// Initialize the logger.
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()
	klog.Info("Starting circuit-reconciler.")

	// Read the config from the environment.
	config.Cfg.PrintConfig()

	// Validate required configuration to proceed.
	configError := config.Cfg.Validate()
	if configError != nil {
		klog.Fatal(configError)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize the database
	dao := granite.NewDAO(nil)
	if err := dao.InitializeTables(ctx); err != nil {
		klog.Error("Unable to initialize the reports table. ", err)
	}

	// Clients for the orchestration market and the RA.
	market := bpo.NewClient()
	var urlCache ra.URLCache = ra.NewMemoryCache()
	if config.Cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{Addr: config.Cfg.RedisAddress, Password: config.Cfg.RedisPassword})
		defer rdb.Close()
		urlCache = ra.NewRedisCache(rdb, time.Duration(config.Cfg.URLCacheTTLMS)*time.Millisecond)
	}
	raClient := ra.NewClient(market, urlCache)

	registry := plan.NewRegistry(market)
	slm.Register(registry, raClient)
	compare.Register(registry)

	reconciler := disconnect.NewReconciler(&dao, disconnect.NewRASource(raClient, &dao))

	if len(config.Cfg.KafkaBrokers) > 0 {
		publisher, err := mq.NewReportPublisher()
		if err != nil {
			klog.Warning("Reports will not be published. ", err)
		} else {
			defer publisher.Close()
			reconciler.WithPublisher(publisher)
		}

		// Only the leader consumes plan requests.
		consume := func(c context.Context) {
			var p mq.Publisher
			if publisher != nil {
				p = publisher
			}
			if err := mq.NewPlanConsumer(mq.NewPlanReader(), registry, p).Run(c); err != nil {
				klog.Error("Plan consumer stopped. ", err)
			}
		}
		if config.Cfg.KubeClient != nil {
			go leader.Run(ctx, config.Cfg.KubeClient, config.Cfg.LeaseName, config.Cfg.PodName, config.Cfg.PodNamespace, consume)
		} else {
			klog.Warning("No kube client, consuming plan requests without leader election.")
			go consume(ctx)
		}
	}

	// Start the server.
	srv := &server.ServerConfig{
		Dao:        &dao,
		Reconciler: reconciler,
		Designs:    &dao,
		Plans:      registry,
	}
	srv.StartAndListen(ctx)
}
