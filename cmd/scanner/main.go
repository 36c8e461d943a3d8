package main

import (
	"flag"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/SamuelLess/carakube/internal/api"
	"github.com/SamuelLess/carakube/internal/config"
	"github.com/SamuelLess/carakube/internal/correlator"
	"github.com/SamuelLess/carakube/internal/fetcher"
	"github.com/SamuelLess/carakube/internal/graph"
	"github.com/SamuelLess/carakube/internal/rules"
	"github.com/SamuelLess/carakube/internal/scheduler"
	"github.com/SamuelLess/carakube/internal/snapshot"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to the configuration file.")
	flag.Parse()

	logConfig := zap.NewProductionConfig()
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := logConfig.Build()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Starting Carakube scanner",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Duration("scan_interval", cfg.ScanInterval),
		zap.Duration("call_timeout", cfg.CallTimeout),
	)

	restConfig, err := clusterConfig(cfg.Kubeconfig)
	if err != nil {
		logger.Fatal("Failed to load cluster configuration", zap.Error(err))
	}
	client, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		logger.Fatal("Failed to create Kubernetes client", zap.Error(err))
	}

	// Live usage is best effort: clusters without metrics-server still
	// get a full topology, just without usage fields.
	var metrics metricsclient.Interface
	if mc, err := metricsclient.NewForConfig(restConfig); err != nil {
		logger.Warn("Metrics client unavailable, live usage disabled", zap.Error(err))
	} else {
		metrics = mc
	}

	publisher := snapshot.New(logger)
	sched := scheduler.New(
		fetcher.NewWithMetrics(client, metrics, cfg.CallTimeout, logger),
		rules.NewEngine(cfg.RuleConfig()),
		correlator.New(logger),
		graph.New(logger),
		publisher,
		cfg.ScanInterval,
		logger,
	)
	server := api.NewServer(api.ServerConfig{Addr: cfg.ListenAddr}, publisher, sched, logger)

	ctx := ctrl.SetupSignalHandler()
	errCh := make(chan error, 2)
	go func() {
		errCh <- sched.Start(ctx)
	}()
	go func() {
		errCh <- server.Start(ctx)
	}()

	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			logger.Fatal("Component failed", zap.Error(err))
		}
	}
	logger.Info("Carakube scanner stopped")
}

// clusterConfig prefers in-cluster configuration and falls back to the
// given (or default) kubeconfig for local runs.
func clusterConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig != "" {
		return clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, &clientcmd.ConfigOverrides{}).ClientConfig()
}
