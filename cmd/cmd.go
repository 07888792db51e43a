// Package cmd defines the command-line interface for fragmeter.
package cmd

import (
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(anomalyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("data-dir", "", "Directory of per-user activity files (<user>.json or <user>.csv)")
	rootCmd.PersistentFlags().String("start", "", "Start day in yyyy-MM-dd, ISO8601 or time ago")
	rootCmd.PersistentFlags().String("end", "", "End day in yyyy-MM-dd, ISO8601 or time ago")
	rootCmd.PersistentFlags().Int("days", 0, "Scoring window in days; also the trend range when --start is unset")
	rootCmd.PersistentFlags().String("timezone", "", "IANA time zone for day boundaries (default local)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("rolling-window", schema.DefaultRollingWindow, "Days per rolling average in trends")
	rootCmd.PersistentFlags().Float64("anomaly-threshold", schema.DefaultAnomalyThreshold, "Standard deviations above the mean that count as an anomaly")
	rootCmd.PersistentFlags().Bool("fallback-on-anomaly", false, "Substitute fallback scores when a computation is not finite")
	rootCmd.PersistentFlags().Float64("rate-limit", 0, "Activity fetches per second (0 = unlimited)")
	rootCmd.PersistentFlags().Int("rate-burst", contract.DefaultRateBurst, "Burst size for the activity fetch rate limit")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-ttl", contract.DefaultCacheTTL.String(), "How long cached activity windows stay valid (e.g., 12h, 2 days)")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "History tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for history tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().Bool("record-history", false, "Record daily scores of trend and team runs in the history store")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of checkCmd to Viper
	checkCmd.Flags().Float64("check-threshold", schema.DefaultCheckThreshold, "Score at or above which a user fails the check")
	if err := viper.BindPFlags(checkCmd.Flags()); err != nil {
		contract.LogFatal("Error binding check flags", err)
	}

	// The anomaly input path is read directly from the command
	anomalyCmd.Flags().String("input", "", "Read the series from a file (JSON array or whitespace separated), - for stdin")

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultServeAddr, "Address to listen on")
	serveCmd.Flags().Float64("api-rate-limit", contract.DefaultAPIRateLimit, "API requests per second per client")
	serveCmd.Flags().Int("api-burst", contract.DefaultAPIBurst, "Burst size for the per-client API rate limit")
	serveCmd.Flags().String("cors-origins", "", "Comma-separated list of allowed CORS origins (empty allows all)")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
