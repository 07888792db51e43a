package contract

import (
	"fmt"
	"math"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/fragmeter/schema"
)

// Default values for configuration.
const (
	DefaultPrecision    = 1
	DefaultWindowDays   = 1
	DefaultTrendDays    = 7
	MaxRangeDays        = 366
	DefaultRateBurst    = 5
	DefaultAPIRateLimit = 10.0
	DefaultAPIBurst     = 20
	DefaultServeAddr    = ":8080"
	DefaultCacheTTL     = 24 * time.Hour
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// WeightsRawInput holds custom scoring weights from the YAML config file.
// Use float64 pointers so that only provided fields override the defaults.
type WeightsRawInput struct {
	Meeting              *float64 `mapstructure:"meeting"`
	IssueUpdate          *float64 `mapstructure:"issue_update"`
	SourceSwitch         *float64 `mapstructure:"source_switch"`
	TypeSwitch           *float64 `mapstructure:"type_switch"`
	MultiPlatform        *float64 `mapstructure:"multi_platform"`
	Density              *float64 `mapstructure:"density"`
	DensityPerDay        *int     `mapstructure:"density_per_day"`
	MultiPlatformSources *int     `mapstructure:"multi_platform_sources"`
}

// FallbackRawInput holds the fallback score constants from the YAML config file.
type FallbackRawInput struct {
	Empty  *float64 `mapstructure:"empty"`
	Active *float64 `mapstructure:"active"`
}

// Config holds the runtime configuration for scoring.
// This struct remains the "final, validated" config.
type Config struct {
	DataDir  string
	Users    []string
	Location *time.Location
	Now      time.Time

	StartDate  schema.Date
	EndDate    schema.Date
	WindowDays int

	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	RollingWindow     int
	AnomalyThreshold  float64
	CheckThreshold    float64
	Weights           schema.Weights
	Fallback          schema.FallbackScores
	FallbackOnAnomaly bool
	RecordHistory     bool

	RateLimit float64 // Activity fetches per second (0 = unlimited)
	RateBurst int

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	ServeAddr    string
	APIRateLimit float64
	APIBurst     int
	CORSOrigins  []string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	UserArgs []string

	// --- Fields from rootCmd.PersistentFlags() ---
	DataDir          string  `mapstructure:"data-dir"`
	Output           string  `mapstructure:"output"`
	OutputFile       string  `mapstructure:"output-file"`
	Precision        int     `mapstructure:"precision"`
	Workers          int     `mapstructure:"workers"`
	Width            int     `mapstructure:"width"`
	Color            string  `mapstructure:"color"`
	Timezone         string  `mapstructure:"timezone"`
	Start            string  `mapstructure:"start"`
	End              string  `mapstructure:"end"`
	RateLimit        float64 `mapstructure:"rate-limit"`
	RateBurst        int     `mapstructure:"rate-burst"`
	CacheBackend     string  `mapstructure:"cache-backend"`
	CacheDBConnect   string  `mapstructure:"cache-db-connect"`
	CacheTTL         string  `mapstructure:"cache-ttl"`
	HistoryBackend   string  `mapstructure:"history-backend"`
	HistoryDBConnect string  `mapstructure:"history-db-connect"`
	RecordHistory    bool    `mapstructure:"record-history"`

	// --- Scoring window and gate ---
	Days           int     `mapstructure:"days"`
	CheckThreshold float64 `mapstructure:"check-threshold"`

	// --- Trend and anomaly options ---
	RollingWindow    int     `mapstructure:"rolling-window"`
	AnomalyThreshold float64 `mapstructure:"anomaly-threshold"`

	// --- Fields from serveCmd ---
	Addr         string  `mapstructure:"addr"`
	APIRateLimit float64 `mapstructure:"api-rate-limit"`
	APIBurst     int     `mapstructure:"api-burst"`
	CORSOrigins  string  `mapstructure:"cors-origins"`

	// --- Scoring options from config file ---
	FallbackOnAnomaly bool             `mapstructure:"fallback-on-anomaly"`
	Weights           WeightsRawInput  `mapstructure:"weights"`
	Fallback          FallbackRawInput `mapstructure:"fallback"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Users = slices.Clone(c.Users)
	clone.CORSOrigins = slices.Clone(c.CORSOrigins)
	return &clone
}

// CloneWithRange creates a copy of the Config and sets the new date range.
func (c *Config) CloneWithRange(start, end schema.Date) *Config {
	clone := c.Clone()
	clone.StartDate = start
	clone.EndDate = end
	return clone
}

// Today returns the calendar day of Now in the configured location.
func (c *Config) Today() schema.Date {
	return schema.NewDate(c.Now.In(c.location()))
}

// ScoreWindow returns the window used by single-window scoring: WindowDays whole days
// ending with today, where today is cut at Now.
func (c *Config) ScoreWindow() (time.Time, time.Time) {
	today := c.Today()
	start := today.AddDate(0, 0, -(c.WindowDays - 1))
	return start, c.Now.In(c.location())
}

func (c *Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput, now time.Time) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processDateRange(cfg, input, now); err != nil {
		return err
	}
	if err := processScoringOptions(cfg, input); err != nil {
		return err
	}
	if err := processServeOptions(cfg, input); err != nil {
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

// ParseBackend normalizes a raw backend name. An empty name maps to fallback.
func ParseBackend(raw string, fallback schema.DatabaseBackend) (schema.DatabaseBackend, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, none", raw)
	}
	return backend, nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	backend, err := ParseBackend(input.CacheBackend, schema.SQLiteBackend)
	if err != nil {
		return fmt.Errorf("invalid cache backend: %w", err)
	}
	cfg.CacheBackend = backend
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		ttl, err := ParseLookbackDuration(input.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache-ttl: %w", err)
		}
		cfg.CacheTTL = ttl
	}

	// --- History Backend Validation ---
	backend, err = ParseBackend(input.HistoryBackend, schema.NoneBackend)
	if err != nil {
		return fmt.Errorf("invalid history backend: %w", err)
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}
	cfg.RecordHistory = input.RecordHistory && cfg.HistoryBackend != schema.NoneBackend

	// Validate that cache and history use different SQLite files
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates all non-date fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.DataDir = strings.TrimSpace(input.DataDir)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Users = nil
	for _, u := range input.UserArgs {
		if u = strings.TrimSpace(u); u != "" && !slices.Contains(cfg.Users, u) {
			cfg.Users = append(cfg.Users, u)
		}
	}

	// Parse color flag
	cfg.UseColors = true
	if input.Color != "" {
		colors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid --color value: %w", err)
		}
		cfg.UseColors = colors
	}

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 3. Rate Limit Validation ---
	if input.RateLimit < 0 || math.IsNaN(input.RateLimit) {
		return fmt.Errorf("rate-limit cannot be negative (received %v)", input.RateLimit)
	}
	cfg.RateLimit = input.RateLimit
	cfg.RateBurst = input.RateBurst
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultRateBurst
	}

	// --- 4. Backend Validation ---
	return validateBackendConfigs(cfg, input)
}

// processDateRange resolves the time zone, the reference instant and the requested day range.
func processDateRange(cfg *Config, input *ConfigRawInput, now time.Time) error {
	loc := time.Local
	if tz := strings.TrimSpace(input.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w", tz, err)
		}
		loc = l
	}
	cfg.Location = loc
	cfg.Now = now.In(loc)

	// --- Window Days ---
	cfg.WindowDays = DefaultWindowDays
	if input.Days != 0 {
		if input.Days < 1 || input.Days > MaxRangeDays {
			return fmt.Errorf("days must be between 1 and %d (received %d)", MaxRangeDays, input.Days)
		}
		cfg.WindowDays = input.Days
	}

	span := DefaultTrendDays
	if input.Days != 0 {
		span = input.Days
	}
	return resolveRange(cfg, input.Start, input.End, span)
}

// RevalidateRange re-resolves the day range of a cloned config for a single request.
// The reference instant moves to now so that long-running servers track the current day.
func RevalidateRange(cfg *Config, startStr, endStr string, now time.Time) error {
	cfg.Now = now.In(cfg.location())
	if err := resolveRange(cfg, startStr, endStr, DefaultTrendDays); err != nil {
		return NewInvalidInput("invalid date range", err)
	}
	return nil
}

// resolveRange parses the start and end days relative to cfg.Now. An empty end is today
// and an empty start is span days before the end.
func resolveRange(cfg *Config, startStr, endStr string, span int) error {
	today := schema.NewDate(cfg.Now)

	// --- Process End Date ---
	cfg.EndDate = today
	if endStr != "" {
		d, err := ParseDay(endStr, cfg.Now)
		if err != nil {
			return fmt.Errorf("invalid end date format for '%s'. Expected yyyy-MM-dd, ISO8601 or 'N [units] ago': %w", endStr, err)
		}
		cfg.EndDate = d
	}

	// --- Process Start Date ---
	cfg.StartDate = schema.Date{Time: cfg.EndDate.AddDate(0, 0, -(span - 1))}
	if startStr != "" {
		d, err := ParseDay(startStr, cfg.Now)
		if err != nil {
			return fmt.Errorf("invalid start date format for '%s'. Expected yyyy-MM-dd, ISO8601 or 'N [units] ago': %w", startStr, err)
		}
		cfg.StartDate = d
	}

	// --- Final Validation ---
	if cfg.EndDate.After(today.Time) {
		return fmt.Errorf("end date (%s) cannot be after today (%s)", cfg.EndDate, today)
	}
	if cfg.StartDate.After(cfg.EndDate.Time) {
		return fmt.Errorf("start date (%s) cannot be after end date (%s)", cfg.StartDate, cfg.EndDate)
	}
	if days := DaysBetween(cfg.StartDate, cfg.EndDate) + 1; days > MaxRangeDays {
		return fmt.Errorf("date range cannot exceed %d days (received %d)", MaxRangeDays, days)
	}

	return nil
}

// processScoringOptions resolves weights, fallback constants and thresholds.
func processScoringOptions(cfg *Config, input *ConfigRawInput) error {
	weights, err := ProcessWeightsRawInput(input.Weights)
	if err != nil {
		return err
	}
	cfg.Weights = weights

	fallback, err := ProcessFallbackRawInput(input.Fallback)
	if err != nil {
		return err
	}
	cfg.Fallback = fallback
	cfg.FallbackOnAnomaly = input.FallbackOnAnomaly

	cfg.RollingWindow = schema.DefaultRollingWindow
	if input.RollingWindow != 0 {
		if input.RollingWindow < 1 {
			return fmt.Errorf("rolling-window must be at least 1 (received %d)", input.RollingWindow)
		}
		cfg.RollingWindow = input.RollingWindow
	}

	cfg.AnomalyThreshold = schema.DefaultAnomalyThreshold
	if input.AnomalyThreshold != 0 {
		if input.AnomalyThreshold < 0 || math.IsNaN(input.AnomalyThreshold) || math.IsInf(input.AnomalyThreshold, 0) {
			return fmt.Errorf("anomaly-threshold must be a finite non-negative number (received %v)", input.AnomalyThreshold)
		}
		cfg.AnomalyThreshold = input.AnomalyThreshold
	}

	cfg.CheckThreshold = schema.DefaultCheckThreshold
	if input.CheckThreshold != 0 {
		if input.CheckThreshold < schema.MinScore || input.CheckThreshold > schema.MaxScore {
			return fmt.Errorf("check-threshold must be between %.1f and %.1f (received %.2f)", schema.MinScore, schema.MaxScore, input.CheckThreshold)
		}
		cfg.CheckThreshold = input.CheckThreshold
	}

	return nil
}

// processServeOptions resolves the HTTP API settings.
func processServeOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.ServeAddr = DefaultServeAddr
	if input.Addr != "" {
		cfg.ServeAddr = input.Addr
	}

	cfg.APIRateLimit = DefaultAPIRateLimit
	if input.APIRateLimit != 0 {
		if input.APIRateLimit < 0 {
			return fmt.Errorf("api-rate-limit cannot be negative (received %v)", input.APIRateLimit)
		}
		cfg.APIRateLimit = input.APIRateLimit
	}
	cfg.APIBurst = DefaultAPIBurst
	if input.APIBurst > 0 {
		cfg.APIBurst = input.APIBurst
	}

	cfg.CORSOrigins = nil
	for origin := range strings.SplitSeq(input.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
		}
	}
	return nil
}

// ProcessWeightsRawInput overlays the provided weights onto the defaults and validates them.
func ProcessWeightsRawInput(raw WeightsRawInput) (schema.Weights, error) {
	w := schema.DefaultWeights()

	floats := []struct {
		name  string
		value *float64
		dst   *float64
	}{
		{"meeting", raw.Meeting, &w.Meeting},
		{"issue_update", raw.IssueUpdate, &w.IssueUpdate},
		{"source_switch", raw.SourceSwitch, &w.SourceSwitch},
		{"type_switch", raw.TypeSwitch, &w.TypeSwitch},
		{"multi_platform", raw.MultiPlatform, &w.MultiPlatform},
		{"density", raw.Density, &w.Density},
	}
	for _, f := range floats {
		if f.value == nil {
			continue
		}
		v := *f.value
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return w, fmt.Errorf("weight %s must be a finite non-negative number, got %v", f.name, v)
		}
		*f.dst = v
	}

	if raw.DensityPerDay != nil {
		if *raw.DensityPerDay < 1 {
			return w, fmt.Errorf("weight density_per_day must be at least 1, got %d", *raw.DensityPerDay)
		}
		w.DensityPerDay = *raw.DensityPerDay
	}
	if raw.MultiPlatformSources != nil {
		if *raw.MultiPlatformSources < 1 {
			return w, fmt.Errorf("weight multi_platform_sources must be at least 1, got %d", *raw.MultiPlatformSources)
		}
		w.MultiPlatformSources = *raw.MultiPlatformSources
	}

	return w, nil
}

// ProcessFallbackRawInput overlays the provided fallback constants onto the defaults.
func ProcessFallbackRawInput(raw FallbackRawInput) (schema.FallbackScores, error) {
	fb := schema.DefaultFallbackScores()
	if raw.Empty != nil {
		fb.Empty = *raw.Empty
	}
	if raw.Active != nil {
		fb.Active = *raw.Active
	}
	for name, v := range map[string]float64{"empty": fb.Empty, "active": fb.Active} {
		if v < schema.MinScore || v > schema.MaxScore || math.IsNaN(v) {
			return fb, fmt.Errorf("fallback %s score must be between %.1f and %.1f, got %v", name, schema.MinScore, schema.MaxScore, v)
		}
	}
	return fb, nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
