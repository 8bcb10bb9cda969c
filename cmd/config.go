package main

import (
	"strings"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8747"`
	AppEnv               string        `env:"APP_ENV,default=development"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	JwtKey               string        `env:"JWT_KEY,required=true"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	UploadsDir           string        `env:"UPLOADS_DIR,default=uploads/files"`
	MaxFileSizeMb        int           `env:"MAX_FILE_SIZE_MB,default=10"`
	DeliveryBufferSize   int           `env:"DELIVERY_BUFFER_SIZE,default=1024"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=16"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=5s"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS"`
}

func (c Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Origins splits ALLOWED_ORIGINS on commas. Empty means the defaults.
func (c Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
