package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/seasonal-forecast-skill/internal/domain"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	DataPath     string
	ForecastPath string
	ScoredFields []domain.Field

	// Supported season-year range [FirstYear, EndYear).
	FirstYear int
	EndYear   int
	Baselines []domain.Baseline
	CDFAbove  float64
	CDFBelow  float64
	Window    domain.Window

	Trials     int
	RandomSeed uint64

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	SQLitePath string

	Serve           bool
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fields, err := parseFields(sharedcfg.EnvOrDefault("SCORED_FIELDS", "avgtemp,rf"))
	if err != nil {
		return nil, err
	}

	firstYear, err := parseInt("DATA_FIRST_YEAR", "1980")
	if err != nil {
		return nil, err
	}
	endYear, err := parseInt("DATA_END_YEAR", "2021")
	if err != nil {
		return nil, err
	}
	if endYear <= firstYear {
		return nil, errors.New("DATA_END_YEAR must be after DATA_FIRST_YEAR")
	}

	baselines, err := parseBaselines(sharedcfg.EnvOrDefault("BASELINES", "1981-2011,1991-2021"))
	if err != nil {
		return nil, err
	}

	cdfAbove, err := parseFloat("CDF_ABOVE", "0.70")
	if err != nil {
		return nil, err
	}
	cdfBelow, err := parseFloat("CDF_BELOW", "0.30")
	if err != nil {
		return nil, err
	}
	if !(cdfBelow > 0 && cdfBelow < cdfAbove && cdfAbove < 1) {
		return nil, errors.New("CDF_ABOVE and CDF_BELOW must satisfy 0 < CDF_BELOW < CDF_ABOVE < 1")
	}

	window, err := domain.ParseWindow(sharedcfg.EnvOrDefault("EVAL_WINDOW", "2016:spring-2020:winter"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVAL_WINDOW: %w", err)
	}
	if window.Start.Year < firstYear || window.End.Year >= endYear {
		return nil, fmt.Errorf("EVAL_WINDOW %s is outside DATA_FIRST_YEAR..DATA_END_YEAR: %w", window, domain.ErrOutOfRange)
	}

	trials, err := parseInt("N_TRIALS", "100")
	if err != nil {
		return nil, err
	}
	if trials < 2 {
		return nil, errors.New("N_TRIALS must be at least 2")
	}

	// Seeds are archived as signed 64-bit integers.
	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("RANDOM_SEED", "0"), 10, 63)
	if err != nil {
		return nil, errors.New("invalid RANDOM_SEED: must be between 0 and 9223372036854775807")
	}

	cfg := &Config{
		DataPath:     sharedcfg.EnvOrDefault("DATA_PATH", "data/hko_data.csv"),
		ForecastPath: sharedcfg.EnvOrDefault("FORECAST_PATH", "data/forecast.csv"),
		ScoredFields: fields,
		FirstYear:    firstYear,
		EndYear:      endYear,
		Baselines:    baselines,
		CDFAbove:     cdfAbove,
		CDFBelow:     cdfBelow,
		Window:       window,
		Trials:       trials,
		RandomSeed:   seed,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "forecast-skill-reports"),

		SQLitePath: os.Getenv("SQLITE_PATH"),

		Serve:           os.Getenv("SERVE") == "true",
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.DataPath == "" {
		return nil, errors.New("DATA_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}
	for _, b := range cfg.Baselines {
		if b.Start < cfg.FirstYear || b.End > cfg.EndYear {
			return nil, fmt.Errorf("BASELINES period %s is outside DATA_FIRST_YEAR..DATA_END_YEAR", b)
		}
	}

	return cfg, nil
}

func parseInt(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

// parseFields reads a comma-separated field list, e.g. "avgtemp,rf".
func parseFields(s string) ([]domain.Field, error) {
	var out []domain.Field
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := domain.ParseField(part)
		if err != nil {
			return nil, fmt.Errorf("invalid SCORED_FIELDS: %w", err)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, errors.New("SCORED_FIELDS is required")
	}
	return out, nil
}

// parseBaselines reads "1981-2011,1991-2021"; each end year is exclusive.
func parseBaselines(s string) ([]domain.Baseline, error) {
	var out []domain.Baseline
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		startStr, endStr, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("invalid BASELINES entry %q", part)
		}
		start, err1 := strconv.Atoi(strings.TrimSpace(startStr))
		end, err2 := strconv.Atoi(strings.TrimSpace(endStr))
		if err1 != nil || err2 != nil || end-start < 2 {
			return nil, fmt.Errorf("invalid BASELINES entry %q", part)
		}
		out = append(out, domain.Baseline{Start: start, End: end})
	}
	if len(out) == 0 {
		return nil, errors.New("BASELINES is required")
	}
	return out, nil
}
