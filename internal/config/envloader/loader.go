// Package envloader overlays environment variables on another config source.
package envloader

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ahrav/orderflow/internal/config"
)

// DefaultPrefix is prepended to every variable name, e.g. ORDERFLOW_CAPACITY.
const DefaultPrefix = "ORDERFLOW"

// EnvLoader applies environment overrides to the configuration returned by a
// base loader. Only scalar settings can be overridden; the catalog always
// comes from the base.
type EnvLoader struct {
	base config.Loader
	v    *viper.Viper
}

// New creates an EnvLoader reading variables named <prefix>_<KEY>.
func New(base config.Loader, prefix string) *EnvLoader {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		_ = v.BindEnv(key) // only errors on an empty key list
	}
	return &EnvLoader{base: base, v: v}
}

var keys = []string{
	"capacity",
	"producers",
	"consumers",
	"items_per_producer",
	"max_think_time",
	"producer_rate_per_sec",
	"debug_addr",
	"log_level",
	"telemetry.service_name",
	"telemetry.endpoint",
	"telemetry.sampling_ratio",
	"telemetry.insecure",
}

// Load returns the base configuration with any set variables applied.
func (l *EnvLoader) Load(ctx context.Context) (*config.Config, error) {
	cfg, err := l.base.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	v := l.v
	if v.IsSet("capacity") {
		cfg.Capacity = v.GetInt("capacity")
	}
	if v.IsSet("producers") {
		cfg.Producers = v.GetInt("producers")
	}
	if v.IsSet("consumers") {
		cfg.Consumers = v.GetInt("consumers")
	}
	if v.IsSet("items_per_producer") {
		cfg.ItemsPerProducer = v.GetInt("items_per_producer")
	}
	if v.IsSet("max_think_time") {
		cfg.MaxThinkTime = v.GetDuration("max_think_time")
	}
	if v.IsSet("producer_rate_per_sec") {
		cfg.ProducerRate = v.GetFloat64("producer_rate_per_sec")
	}
	if v.IsSet("debug_addr") {
		cfg.DebugAddr = v.GetString("debug_addr")
	}
	if v.IsSet("log_level") {
		cfg.LogLevel = strings.ToLower(v.GetString("log_level"))
	}
	if v.IsSet("telemetry.service_name") {
		cfg.Telemetry.ServiceName = v.GetString("telemetry.service_name")
	}
	if v.IsSet("telemetry.endpoint") {
		cfg.Telemetry.Endpoint = v.GetString("telemetry.endpoint")
	}
	if v.IsSet("telemetry.sampling_ratio") {
		cfg.Telemetry.SamplingRatio = v.GetFloat64("telemetry.sampling_ratio")
	}
	if v.IsSet("telemetry.insecure") {
		cfg.Telemetry.Insecure = v.GetBool("telemetry.insecure")
	}

	return cfg, nil
}
