package config

// Configs holds the static service configuration, bound from environment
// variables at startup.
type Configs struct {
	ApplicationEnv      string `mapstructure:"app_env"`
	ApplicationLogLevel string `mapstructure:"app_log_level"`
	ApplicationName     string `mapstructure:"app_name"`
	ApplicationVersion  string `mapstructure:"app_version"`
	ApplicationPort     int    `mapstructure:"app_port"`

	//model-artifact-config
	ModelBucket     string `mapstructure:"model_bucket"`
	ModelKey        string `mapstructure:"model_key"`
	ModelLocalPath  string `mapstructure:"model_localPath"`
	ModelStrictLoad bool   `mapstructure:"model_strictLoad"`

	//scoring-config
	MaxLeadsPerRequest   int   `mapstructure:"scoring_maxLeadsPerRequest"`
	MaxRequestBodyBytes  int64 `mapstructure:"scoring_maxRequestBodyBytes"`
	PredictionPoolSize   int   `mapstructure:"scoring_predictionPoolSize"`
	PredictionTimeoutMs  int   `mapstructure:"scoring_predictionTimeoutMs"`
	MaxCustomFeatures    int   `mapstructure:"scoring_maxCustomFeatures"`
	FanoutPoolSize       int   `mapstructure:"scoring_fanoutPoolSize"`
	FanoutQueueDepth     int   `mapstructure:"scoring_fanoutQueueDepth"`

	//data-lake-config
	DataLakeBucket string `mapstructure:"dataLake_bucket"`
	DataLakePrefix string `mapstructure:"dataLake_prefix"`

	//kafka-config
	KafkaBootstrapServers string `mapstructure:"kafka_bootstrapServers"`
	KafkaScoreTopic       string `mapstructure:"kafka_scoreTopic"`

	//aws-config
	AWSRegion          string `mapstructure:"aws_region"`
	AWSAccessKeyID     string `mapstructure:"aws_accessKeyId"`
	AWSSecretAccessKey string `mapstructure:"aws_secretAccessKey"`
	AWSEndpoint        string `mapstructure:"aws_endpoint"`

	//telegraf-config
	MetricsSamplingRate string `mapstructure:"metrics_sampling_rate"`
	TelegrafHost        string `mapstructure:"telegraf_host"`
	TelegrafPort        string `mapstructure:"telegraf_port"`
}

type DynamicConfigs struct {
}

type AppConfigs struct {
	Configs        Configs
	DynamicConfigs DynamicConfigs
}

func (a *AppConfigs) GetStaticConfig() interface{} {
	return &a.Configs
}

func (a *AppConfigs) GetDynamicConfig() interface{} {
	return &a.Configs
}
