package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/growthml/leadscore/internal/config"
	"github.com/growthml/leadscore/internal/model"
	"github.com/growthml/leadscore/internal/objectstore"
	"github.com/growthml/leadscore/internal/scoring"
	httpserver "github.com/growthml/leadscore/internal/server/http"
	"github.com/growthml/leadscore/internal/sink"
	"github.com/growthml/leadscore/pkg/logger"
	"github.com/growthml/leadscore/pkg/metric"
	"github.com/growthml/leadscore/pkg/worker"
	"github.com/spf13/viper"
	_ "go.uber.org/automaxprocs"
)

const shutdownGracePeriod = 30 * time.Second

var AppConfigs config.AppConfigs

func main() {
	viper.AutomaticEnv()
	viper.SetConfigName("application")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file found, using environment variables only")
	}
	config.InitConfig(&AppConfigs)
	cfg := &AppConfigs.Configs

	logger.InitLogger(&AppConfigs)
	metric.InitMetrics(&AppConfigs)

	ctx := context.Background()

	source, artifactKey := modelSource(ctx, cfg)
	adapter := model.NewAdapter(source, artifactKey)
	if err := adapter.Load(ctx); err != nil {
		if cfg.ModelStrictLoad {
			logger.Panic("Model artifact load failed and strict loading is enabled", err)
		}
		logger.Error("Model artifact load failed, scoring endpoints will return 503 until restart", err)
	}

	predictionPool := worker.NewPool("prediction", cfg.PredictionPoolSize, cfg.PredictionPoolSize*2)
	fanoutPool := worker.NewPool("fanout", cfg.FanoutPoolSize, cfg.FanoutQueueDepth)

	lakeWriter := sink.NewDataLakeWriter(cfg)
	dispatcher := sink.NewDispatcher(fanoutPool, lakeWriter, sink.NewMetricsPublisher())

	validator := scoring.NewValidator(cfg.MaxLeadsPerRequest, cfg.MaxCustomFeatures)
	orchestrator := scoring.NewOrchestrator(adapter, validator, predictionPool, dispatcher,
		time.Duration(cfg.PredictionTimeoutMs)*time.Millisecond)

	handler := httpserver.NewHandler(orchestrator, adapter, cfg)
	server := httpserver.NewServer(cfg, handler)

	serveErrors := make(chan error, 1)
	go func() { serveErrors <- server.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErrors:
		if err != nil {
			logger.Panic("HTTP server failed", err)
		}
		return
	case sig := <-quit:
		logger.Info(fmt.Sprintf("Received signal %s, shutting down", sig))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", err)
	}
	if err := predictionPool.Shutdown(shutdownCtx); err != nil {
		logger.Error("Prediction pool shutdown error", err)
	}
	if err := fanoutPool.Shutdown(shutdownCtx); err != nil {
		logger.Error("Fan-out pool shutdown error", err)
	}
	lakeWriter.Close()
	logger.Info("Shutdown complete")
}

// modelSource picks where the artifact is read from: S3 when a bucket is
// configured, a local file path otherwise.
func modelSource(ctx context.Context, cfg *config.Configs) (objectstore.Reader, string) {
	if cfg.ModelBucket != "" {
		client, err := objectstore.NewS3Client(ctx, objectstore.S3Config{
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.AWSEndpoint,
		}, cfg.ModelBucket)
		if err != nil {
			logger.Panic("Failed to initialize S3 model source", err)
		}
		return client, cfg.ModelKey
	}
	if cfg.ModelLocalPath != "" {
		return objectstore.LocalStore{}, cfg.ModelLocalPath
	}
	logger.Panic("No model source configured, set MODEL_BUCKET or MODEL_LOCAL_PATH", nil)
	return nil, ""
}
