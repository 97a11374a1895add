package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/couchcryptid/fmap-wx-fixer/internal/domain"
)

// TCUDisabled is the --mintcu value that skips the TCU pass.
const TCUDisabled = "none"

// Config holds all run settings, populated from flags with environment
// defaults for the ambient options.
type Config struct {
	InputDir  string
	OutputDir string

	Thresholds domain.Thresholds
	MinTCU     domain.Category // zero disables the TCU pass

	LogLevel    string
	LogFormat   string
	MetricsFile string
	MetricsAddr string // serve status and metrics during the run when set

	// Kafka fix reports. Enabled when at least one broker is configured.
	KafkaBrokers     []string
	KafkaReportTopic string
}

// KafkaEnabled reports whether per-file reports should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// FixOptions returns the domain options for this run.
func (c *Config) FixOptions() domain.FixOptions {
	return domain.FixOptions{Thresholds: c.Thresholds, MinTCU: c.MinTCU}
}

// flagValues mirrors the flag set before conversion into Config.
type flagValues struct {
	input        string
	output       string
	sunny        float64
	fair         float64
	poor         float64
	inclement    float64
	minTCU       string
	logLevel     string
	logFormat    string
	metricsFile  string
	metricsAddr  string
	kafkaBrokers string
	kafkaTopic   string
}

func newFlagSet(v *flagValues) *pflag.FlagSet {
	defaults := domain.DefaultThresholds()

	fs := pflag.NewFlagSet("fmapfix", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.StringVarP(&v.input, "input", "i", "", "directory containing input fmap files (required)")
	fs.StringVarP(&v.output, "output", "o", "", "directory to write fixed fmap files (required)")
	fs.Float64VarP(&v.sunny, "sunny", "s", float64(defaults.Sunny), "minimum visibility for sunny cells")
	fs.Float64VarP(&v.fair, "fair", "f", float64(defaults.Fair), "minimum visibility for fair-weather cells")
	fs.Float64VarP(&v.poor, "poor", "p", float64(defaults.Poor), "minimum visibility for poor-weather cells")
	fs.Float64VarP(&v.inclement, "inclement", "c", float64(defaults.Inclement), "minimum visibility for inclement cells")
	fs.StringVarP(&v.minTCU, "mintcu", "m", "fair", "only allow TCU in cells worse than this category: sunny, fair, poor, inclement or none")
	fs.StringVar(&v.logLevel, "log-level", envOrDefault("LOG_LEVEL", "info"), "log level: debug, info, warn or error")
	fs.StringVar(&v.logFormat, "log-format", envOrDefault("LOG_FORMAT", "text"), "log format: text or json")
	fs.StringVar(&v.metricsFile, "metrics-file", os.Getenv("METRICS_FILE"), "write Prometheus metrics to this file when the run ends")
	fs.StringVar(&v.metricsAddr, "metrics-addr", os.Getenv("METRICS_ADDR"), "serve /healthz, /readyz and /metrics on this address while the run is in progress")
	fs.StringVar(&v.kafkaBrokers, "kafka-brokers", os.Getenv("KAFKA_BROKERS"), "comma-separated Kafka brokers for fix reports (disabled when empty)")
	fs.StringVar(&v.kafkaTopic, "kafka-topic", envOrDefault("KAFKA_REPORT_TOPIC", "fmap-fix-reports"), "Kafka topic for fix reports")
	fs.BoolP("help", "h", false, "show help")
	return fs
}

// Load parses args (without the program name). Variables from a .env file in
// the working directory fill in for unset environment variables. It returns
// pflag.ErrHelp when help was requested.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	var v flagValues
	fs := newFlagSet(&v)
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if help, _ := fs.GetBool("help"); help {
		return nil, pflag.ErrHelp
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg := &Config{
		InputDir:  v.input,
		OutputDir: v.output,
		Thresholds: domain.Thresholds{
			Sunny:     float32(v.sunny),
			Fair:      float32(v.fair),
			Poor:      float32(v.poor),
			Inclement: float32(v.inclement),
		},
		LogLevel:         strings.ToLower(v.logLevel),
		LogFormat:        strings.ToLower(v.logFormat),
		MetricsFile:      v.metricsFile,
		MetricsAddr:      v.metricsAddr,
		KafkaBrokers:     parseBrokers(v.kafkaBrokers),
		KafkaReportTopic: v.kafkaTopic,
	}

	if cfg.InputDir == "" {
		return nil, errors.New("--input is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("--output is required")
	}

	thresholds := []struct {
		name  string
		value float64
	}{
		{"sunny", v.sunny},
		{"fair", v.fair},
		{"poor", v.poor},
		{"inclement", v.inclement},
	}
	for _, th := range thresholds {
		if math.IsNaN(th.value) || math.IsInf(th.value, 0) || th.value < 0 || th.value > math.MaxFloat32 {
			return nil, fmt.Errorf("invalid --%s threshold %v: must be a finite non-negative number", th.name, th.value)
		}
	}

	if !strings.EqualFold(strings.TrimSpace(v.minTCU), TCUDisabled) {
		c, err := domain.ParseCategory(v.minTCU)
		if err != nil {
			return nil, fmt.Errorf("invalid --mintcu: %w", err)
		}
		cfg.MinTCU = c
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", v.logLevel)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", v.logFormat)
	}
	if cfg.KafkaEnabled() && cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// Usage returns the flag help text.
func Usage() string {
	var v flagValues
	return "Usage: fmapfix --input DIR --output DIR [flags]\n\n" +
		"Raise implausibly low visibility in fmap weather files and clear\n" +
		"towering cumulus markers in benign weather.\n\n" +
		newFlagSet(&v).FlagUsages()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
