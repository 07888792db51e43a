// Package main provides a performance benchmarking tool for the fragmeter CLI.
// It generates synthetic activity datasets of increasing size and measures execution
// times per command, running each test multiple times, treating the first successful
// cached run as cold and averaging the rest as warm, generating CSV output for
// performance analysis and documentation.
//
// Prerequisites:
// - fragmeter binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the synthetic datasets are generated
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// Dataset describes one synthetic activity directory.
type Dataset struct {
	Name        string
	Users       int
	Days        int
	PerDay      int
	DataDirPath string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Datasets    []Dataset
}

// activity mirrors the activity file format read by fragmeter.
type activity struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

var activityKinds = []activity{
	{Type: "teams_meeting", Source: "teams"},
	{Type: "teams_chat", Source: "teams"},
	{Type: "jira_issue_update", Source: "jira"},
	{Type: "m365_calendar_event", Source: "m365"},
	{Type: "teams_presence", Source: "teams"},
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     14,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Datasets: []Dataset{
			{Name: "small", Users: 10, Days: 30, PerDay: 10},
			{Name: "medium", Users: 100, Days: 90, PerDay: 20},
			{Name: "large", Users: 500, Days: 180, PerDay: 30},
		},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	for i := range config.Datasets {
		if err := generateDataset(config.WorkDir, &config.Datasets[i]); err != nil {
			fmt.Printf("Failed to generate dataset %s: %v\n", config.Datasets[i].Name, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("fragmeter", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the fragmeter binary is available
func checkPrerequisites() error {
	if _, err := exec.LookPath("fragmeter"); err != nil {
		return fmt.Errorf("fragmeter binary not found in PATH")
	}
	return nil
}

// generateDataset writes one JSON activity file per user, ending today.
func generateDataset(workDir string, ds *Dataset) error {
	ds.DataDirPath = filepath.Join(workDir, "fragmeter-bench-"+ds.Name)
	if err := os.MkdirAll(ds.DataDirPath, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(uint64(ds.Users), uint64(ds.Days)))
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for u := range ds.Users {
		items := make([]activity, 0, ds.Days*ds.PerDay)
		for d := range ds.Days {
			day := today.AddDate(0, 0, -d)
			for range ds.PerDay {
				a := activityKinds[rng.IntN(len(activityKinds))]
				a.Timestamp = day.Add(time.Duration(rng.IntN(12*60)) * time.Minute).Add(6 * time.Hour)
				items = append(items, a)
			}
		}

		data, err := json.Marshal(items)
		if err != nil {
			return err
		}
		path := filepath.Join(ds.DataDirPath, "user"+strconv.Itoa(u)+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
	}
	fmt.Printf("Generated %s dataset: %d users, %d days, %d activities per day\n", ds.Name, ds.Users, ds.Days, ds.PerDay)
	return nil
}

// runBenchmarks executes all benchmark tests across configured datasets
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, ds := range config.Datasets {
		fmt.Printf("Benchmarking %s\n", ds.Name)
		rangeArg := fmt.Sprintf("--start \"%d days ago\"", ds.Days-1)

		results = append(results,
			runBenchmarkSuite(config, ds, "score", "score over 7 days", "--days 7"),
			runBenchmarkSuite(config, ds, "trend", "trend of one user", "user0 "+rangeArg),
			runBenchmarkSuite(config, ds, "team", "team trend", rangeArg),
		)
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, ds Dataset, command, description, extraArgs string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", description, ds.Name)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, ds, command, extraArgs, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     ds.Name,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a fragmeter command multiple times with specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, ds Dataset, command, extraArgs, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		command,
		"--data-dir", ds.DataDirPath,
		"--cache-backend", cacheBackend,
		"--workers", strconv.Itoa(config.Workers),
		"--timezone", "UTC",
	}
	if extraArgs != "" {
		args = append(args, parseArgs(extraArgs)...)
	}

	var times []float64
	for range numRuns {
		start := time.Now()

		cmd := exec.Command("fragmeter", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

func parseArgs(argsStr string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	for _, r := range argsStr {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ' ':
			if !inQuotes && current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			} else if inQuotes {
				current.WriteRune(r)
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

// isSuccess checks if command output carries the completion trailer
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, " in ") &&
		strings.Contains(outputStr, "workers. Cache backend:")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/fragmeter_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "score", "Score:")
	printCommandSummary(results, "trend", "Trend:")
	printCommandSummary(results, "team", "Team:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8s: No-cache: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}
