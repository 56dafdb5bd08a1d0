// Package config defines the runtime settings of the order pipeline and how
// they are validated.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/orderflow/internal/domain/pipeline"
)

// Config represents the top-level configuration.
type Config struct {
	// Capacity is the number of slots in the shared queue.
	Capacity int `yaml:"capacity" validate:"gt=0"`

	// Producers and Consumers are the number of actors on each side of the queue.
	Producers int `yaml:"producers" validate:"gt=0"`
	Consumers int `yaml:"consumers" validate:"gt=0"`

	// ItemsPerProducer is the quota each producer enqueues before exiting.
	ItemsPerProducer int `yaml:"items_per_producer" validate:"gt=0"`

	// MaxThinkTime bounds the random pause a producer takes between items.
	// Zero disables the pause.
	MaxThinkTime time.Duration `yaml:"max_think_time" validate:"gte=0"`

	// ProducerRate caps how many items per second each producer may enqueue.
	// Zero means unpaced.
	ProducerRate float64 `yaml:"producer_rate_per_sec" validate:"gte=0"`

	Catalog []KindSpec `yaml:"catalog" validate:"required,min=1,unique=Kind,dive"`

	Telemetry TelemetryConfig `yaml:"telemetry"`

	// DebugAddr enables the debug HTTP endpoints when set.
	DebugAddr string `yaml:"debug_addr,omitempty" validate:"omitempty,hostname_port"`

	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// KindSpec is one catalog entry: a label and its processing time.
type KindSpec struct {
	Kind     string        `yaml:"kind" validate:"required"`
	Duration time.Duration `yaml:"duration" validate:"gt=0"`
}

// TelemetryConfig controls OTLP export. An empty Endpoint disables export.
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" validate:"required"`
	Endpoint      string  `yaml:"endpoint,omitempty"`
	SamplingRatio float64 `yaml:"sampling_ratio" validate:"gte=0,lte=1"`
	Insecure      bool    `yaml:"insecure"`
}

// Default returns the stock coffee shop setup: five order slots, three
// customers placing two orders each and two baristas.
func Default() *Config {
	return &Config{
		Capacity:         5,
		Producers:        3,
		Consumers:        2,
		ItemsPerProducer: 2,
		MaxThinkTime:     2 * time.Second,
		Catalog: []KindSpec{
			{Kind: "Espresso", Duration: 2 * time.Second},
			{Kind: "Latte", Duration: 4 * time.Second},
			{Kind: "Cappuccino", Duration: 3 * time.Second},
			{Kind: "Americano", Duration: 2 * time.Second},
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "orderflow",
			SamplingRatio: 1,
			Insecure:      true,
		},
		LogLevel: "info",
	}
}

// ExpectedTotal is the number of items the run must process before it ends.
func (c *Config) ExpectedTotal() int { return c.Producers * c.ItemsPerProducer }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their YAML names so errors match what users wrote.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field and returns all violations joined together.
// Each violation is a *pipeline.ConfigurationError.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		errs = append(errs, pipeline.NewConfigurationError(field, fe.Value(), describe(fe)))
	}
	return errors.Join(errs...)
}

func describe(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
	return fmt.Sprintf("failed %q check (%s)", fe.Tag(), fe.Param())
}

// BuildCatalog converts the configured kinds into a domain catalog.
func (c *Config) BuildCatalog() (pipeline.Catalog, error) {
	entries := make([]pipeline.CatalogEntry, 0, len(c.Catalog))
	for _, k := range c.Catalog {
		entries = append(entries, pipeline.CatalogEntry{Kind: pipeline.Kind(k.Kind), Duration: k.Duration})
	}
	return pipeline.NewCatalog(entries)
}
