package metric

import (
	"github.com/growthml/leadscore/pkg/logger"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

const (
	EnvDelimiter    string = "__"
	ConfigDelimiter string = "."

	// these keys are injected by the deployment environment, don't change / delete
	TelegrafUdpHost string = "TELEGRAF_UDP_HOST"
	TelegrafUdpPort string = "TELEGRAF_UDP_PORT"
)

var (
	// Can be concurrently accessed if not being watched
	envConfig *koanf.Koanf
)

// initEnvConfig loads the telegraf endpoint published by the deployment
// environment. Env variables override the localhost defaults.
func initEnvConfig() {
	envConfig = koanf.New(ConfigDelimiter)

	envConfig.Load(confmap.Provider(map[string]interface{}{
		TelegrafUdpHost: "localhost",
		TelegrafUdpPort: "8125",
	}, ConfigDelimiter), nil)

	err := envConfig.Load(env.Provider("", EnvDelimiter, nil), nil)
	if err != nil {
		logger.Panic("Error occurred while loading environment variables!", err)
	}
}
