package config

import (
	"log"

	"github.com/spf13/viper"
)

// Defaults applied before environment binding.
const (
	defaultMaxLeadsPerRequest  = 500
	defaultMaxRequestBodyBytes = 10 << 20
	defaultPredictionTimeoutMs = 500
	defaultMaxCustomFeatures   = 40
	defaultFanoutQueueDepth    = 256
)

func InitConfig(appConfigs *AppConfigs) {
	staticConfig := appConfigs.GetStaticConfig()
	cfg, ok := staticConfig.(*Configs)
	if !ok {
		log.Fatal("Failed to cast static config to *Configs")
	}

	setDefaults()

	// Manually bind environment variables to mapstructure keys
	// This ensures proper mapping from env vars to struct fields
	bindEnvVars()

	if err := viper.Unmarshal(cfg); err != nil {
		log.Fatalf("Failed to unmarshal config from environment: %v", err)
	}

	log.Println("Configuration loaded from environment variables")
}

func setDefaults() {
	viper.SetDefault("app_env", "dev")
	viper.SetDefault("app_log_level", "INFO")
	viper.SetDefault("app_name", "leadscore")
	viper.SetDefault("app_version", "1.0.0")
	viper.SetDefault("app_port", 8000)

	viper.SetDefault("model_strictLoad", true)

	viper.SetDefault("scoring_maxLeadsPerRequest", defaultMaxLeadsPerRequest)
	viper.SetDefault("scoring_maxRequestBodyBytes", defaultMaxRequestBodyBytes)
	viper.SetDefault("scoring_predictionPoolSize", 0) // 0 -> sized from NumCPU
	viper.SetDefault("scoring_predictionTimeoutMs", defaultPredictionTimeoutMs)
	viper.SetDefault("scoring_maxCustomFeatures", defaultMaxCustomFeatures)
	viper.SetDefault("scoring_fanoutPoolSize", 4)
	viper.SetDefault("scoring_fanoutQueueDepth", defaultFanoutQueueDepth)

	viper.SetDefault("dataLake_prefix", "predictions")

	viper.SetDefault("aws_region", "eu-west-1")

	viper.SetDefault("metrics_sampling_rate", "1.0")
	viper.SetDefault("telegraf_host", "localhost")
	viper.SetDefault("telegraf_port", "8125")
}

func bindEnvVars() {
	// Application config
	viper.BindEnv("app_env", "APP_ENV")
	viper.BindEnv("app_log_level", "APP_LOG_LEVEL")
	viper.BindEnv("app_name", "APP_NAME")
	viper.BindEnv("app_version", "APP_VERSION")
	viper.BindEnv("app_port", "APP_PORT")

	// Model artifact config
	viper.BindEnv("model_bucket", "MODEL_BUCKET")
	viper.BindEnv("model_key", "MODEL_KEY")
	viper.BindEnv("model_localPath", "MODEL_LOCAL_PATH")
	viper.BindEnv("model_strictLoad", "MODEL_STRICT_LOAD")

	// Scoring config
	viper.BindEnv("scoring_maxLeadsPerRequest", "SCORING_MAX_LEADS_PER_REQUEST")
	viper.BindEnv("scoring_maxRequestBodyBytes", "SCORING_MAX_REQUEST_BODY_BYTES")
	viper.BindEnv("scoring_predictionPoolSize", "SCORING_PREDICTION_POOL_SIZE")
	viper.BindEnv("scoring_predictionTimeoutMs", "SCORING_PREDICTION_TIMEOUT_MS")
	viper.BindEnv("scoring_maxCustomFeatures", "SCORING_MAX_CUSTOM_FEATURES")
	viper.BindEnv("scoring_fanoutPoolSize", "SCORING_FANOUT_POOL_SIZE")
	viper.BindEnv("scoring_fanoutQueueDepth", "SCORING_FANOUT_QUEUE_DEPTH")

	// Data lake config
	viper.BindEnv("dataLake_bucket", "DATA_LAKE_BUCKET")
	viper.BindEnv("dataLake_prefix", "DATA_LAKE_PREFIX")

	// Kafka streaming config
	viper.BindEnv("kafka_bootstrapServers", "KAFKA_BOOTSTRAP_SERVERS")
	viper.BindEnv("kafka_scoreTopic", "KAFKA_SCORE_TOPIC")

	// AWS config
	viper.BindEnv("aws_region", "AWS_REGION")
	viper.BindEnv("aws_accessKeyId", "AWS_ACCESS_KEY_ID")
	viper.BindEnv("aws_secretAccessKey", "AWS_SECRET_ACCESS_KEY")
	viper.BindEnv("aws_endpoint", "AWS_ENDPOINT")

	// Metrics / Telegraf config
	viper.BindEnv("metrics_sampling_rate", "METRIC_SAMPLING_RATE")
	viper.BindEnv("telegraf_host", "TELEGRAF_HOST")
	viper.BindEnv("telegraf_port", "TELEGRAF_PORT")
}
