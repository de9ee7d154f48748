package contract

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/binforecast/schema"
	"go.uber.org/zap/zapcore"
)

// Default values for configuration.
const (
	DefaultProbeTimeout    = 3 * time.Second
	DefaultBatchTimeout    = 10 * time.Second
	DefaultMetricsTTL      = 5 * time.Minute
	DefaultRefreshInterval = 30 * time.Minute
	DefaultResultLimit     = 0 // all districts
	MaxResultLimit         = 1000
	DefaultPrecision       = 1
	DefaultDays            = 7
	MaxDays                = 31
)

// DefaultEndpoints are the candidate model service base URLs, probed in order.
var DefaultEndpoints = []string{
	"http://localhost:8000",
	"http://10.0.2.2:8000",
	"http://172.20.10.2:8000",
	"http://192.168.1.49:8000",
}

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for forecasting.
// This struct remains the "final, validated" config.
type Config struct {
	Endpoints       []string
	ProbeTimeout    time.Duration
	BatchTimeout    time.Duration
	MetricsTTL      time.Duration
	RefreshInterval time.Duration
	Seed            int64
	Offline         bool // skip the remote service entirely
	ForceMetrics    bool // bypass the metrics TTL

	DistrictsPath string // empty means the embedded dataset
	ReferenceDate time.Time
	Days          int
	DistrictID    string

	ResultLimit int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Detail      bool
	Width       int // Terminal width override (0 = auto-detect)
	UseColors   bool

	LogLevel zapcore.Level

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Events []schema.Event
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Endpoints        string `mapstructure:"endpoints"`
	ProbeTimeout     string `mapstructure:"probe-timeout"`
	BatchTimeout     string `mapstructure:"batch-timeout"`
	MetricsTTL       string `mapstructure:"metrics-ttl"`
	Seed             int64  `mapstructure:"seed"`
	Offline          bool   `mapstructure:"offline"`
	Districts        string `mapstructure:"districts"`
	Date             string `mapstructure:"date"`
	Limit            int    `mapstructure:"limit"`
	Precision        int    `mapstructure:"precision"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Detail           bool   `mapstructure:"detail"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	LogLevel         string `mapstructure:"log-level"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Fields from subcommand flags ---
	Days            int    `mapstructure:"days"`
	RefreshInterval string `mapstructure:"refresh-interval"`
	District        string `mapstructure:"district"`
	Force           bool   `mapstructure:"force"`

	// --- Event calendar from config file ---
	Events []schema.Event `mapstructure:"events"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Endpoints = slices.Clone(c.Endpoints)
	if c.Events != nil {
		clone.Events = make([]schema.Event, len(c.Events))
		for i, ev := range c.Events {
			ev.Dates = slices.Clone(ev.Dates)
			ev.Districts = slices.Clone(ev.Districts)
			clone.Events[i] = ev
		}
	}
	return &clone
}

// CloneWithReferenceDate creates a copy of the Config with a new reference date.
func (c *Config) CloneWithReferenceDate(date time.Time) *Config {
	clone := c.Clone()
	clone.ReferenceDate = date
	return clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processRemoteSettings(cfg, input); err != nil {
		return err
	}
	if err := processReferenceDate(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processEvents(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates presentation and range fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Width = input.Width
	cfg.Seed = input.Seed
	cfg.Offline = input.Offline
	cfg.ForceMetrics = input.Force
	cfg.DistrictsPath = strings.TrimSpace(input.Districts)
	cfg.DistrictID = strings.TrimSpace(input.District)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be between 0 and %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Precision < 0 || input.Precision > 2 {
		return fmt.Errorf("precision must be 0, 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Days = input.Days
	if cfg.Days == 0 {
		cfg.Days = DefaultDays
	}
	if cfg.Days < 1 || cfg.Days > MaxDays {
		return fmt.Errorf("days must be between 1 and %d (received %d)", MaxDays, input.Days)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	level := input.LogLevel
	if level == "" {
		level = "warn"
	}
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", input.LogLevel, err)
	}
	cfg.LogLevel = parsed
	return nil
}

// processRemoteSettings parses endpoints and timing settings of the remote client.
func processRemoteSettings(cfg *Config, input *ConfigRawInput) error {
	endpoints, err := ParseEndpoints(input.Endpoints)
	if err != nil {
		return err
	}
	if len(endpoints) == 0 {
		endpoints = slices.Clone(DefaultEndpoints)
	}
	cfg.Endpoints = endpoints

	durations := []struct {
		name  string
		raw   string
		def   time.Duration
		field *time.Duration
	}{
		{"probe-timeout", input.ProbeTimeout, DefaultProbeTimeout, &cfg.ProbeTimeout},
		{"batch-timeout", input.BatchTimeout, DefaultBatchTimeout, &cfg.BatchTimeout},
		{"metrics-ttl", input.MetricsTTL, DefaultMetricsTTL, &cfg.MetricsTTL},
		{"refresh-interval", input.RefreshInterval, DefaultRefreshInterval, &cfg.RefreshInterval},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.raw) == "" {
			*d.field = d.def
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", d.name, d.raw, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("%s must be positive (received %s)", d.name, d.raw)
		}
		*d.field = parsed
	}
	return nil
}

// processReferenceDate resolves the reference date, defaulting to today.
func processReferenceDate(cfg *Config, input *ConfigRawInput) error {
	date, err := ParseReferenceDate(input.Date)
	if err != nil {
		return err
	}
	cfg.ReferenceDate = date
	return nil
}

// ParseReferenceDate parses a YYYY-MM-DD date in local time. A blank value means today.
func ParseReferenceDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	date, err := time.ParseInLocation(schema.DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s' (expected YYYY-MM-DD): %w", s, err)
	}
	return date, nil
}

// RevalidateDays re-validates the range length for callers that bypass flag parsing.
func RevalidateDays(cfg *Config, days int) error {
	if days < 1 || days > MaxDays {
		return fmt.Errorf("days must be between 1 and %d (received %d)", MaxDays, days)
	}
	cfg.Days = days
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache-db-connect: %w", err)
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("history-db-connect: %w", err)
	}

	// Cache and history must not share a SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if cachePath == historyPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// processEvents validates the event calendar from the config file.
func processEvents(cfg *Config, input *ConfigRawInput) error {
	for _, ev := range input.Events {
		if strings.TrimSpace(ev.Name) == "" {
			return fmt.Errorf("event without a name")
		}
		if len(ev.Dates) == 0 {
			return fmt.Errorf("event %q has no dates", ev.Name)
		}
		for _, date := range ev.Dates {
			if _, err := time.Parse("01-02", date); err != nil {
				return fmt.Errorf("event %q has invalid date %q (expected MM-DD)", ev.Name, date)
			}
		}
		if ev.Multiplier < 0 {
			return fmt.Errorf("event %q has negative multiplier %v", ev.Name, ev.Multiplier)
		}
	}
	cfg.Events = input.Events
	return nil
}
