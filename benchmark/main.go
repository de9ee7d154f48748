// Package main provides a performance benchmarking tool for the binforecast CLI.
// It measures execution times of the forecast commands with history recording
// disabled and with a SQLite history, running each test multiple times, treating
// the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - binforecast binary installed and available in PATH
//
// All runs use --offline so that timings measure the simulator and the
// history store rather than the network.
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory that holds the temporary history databases
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-history average, cold run and average of warm runs).
type BenchmarkResult struct {
	Scenario      string
	Command       string
	NoHistoryTime string
	ColdTime      string
	WarmTime      string
}

// BenchmarkScenario is one command line to time.
type BenchmarkScenario struct {
	Name    string
	Command string
	Args    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir       string
	Timeout       time.Duration
	NoHistoryRuns int
	HistoryRuns   int
	Scenarios     []BenchmarkScenario
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:       os.Args[1],
		Timeout:       2 * time.Minute,
		NoHistoryRuns: 3,
		HistoryRuns:   4,
		Scenarios: []BenchmarkScenario{
			{Name: "tomorrow", Command: "forecast", Args: "--date 2025-12-04"},
			{Name: "top-10", Command: "forecast", Args: "--date 2025-12-04 --limit 10"},
			{Name: "week", Command: "range", Args: "--date 2025-12-04 --days 7"},
			{Name: "month", Command: "range", Args: "--date 2025-12-04 --days 30"},
			{Name: "summary", Command: "summary", Args: "--date 2025-12-04"},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the binforecast binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("binforecast"); err != nil {
		return fmt.Errorf("binforecast binary not found in PATH")
	}
	if info, err := os.Stat(config.WorkDir); err != nil || !info.IsDir() {
		return fmt.Errorf("work directory %s not found", config.WorkDir)
	}
	return nil
}

// runBenchmarks executes all configured scenarios
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d scenarios, %v timeout, no-history: %d runs, history: %d runs\n",
		len(config.Scenarios), config.Timeout, config.NoHistoryRuns, config.HistoryRuns)

	for _, scenario := range config.Scenarios {
		results = append(results, runBenchmarkSuite(config, scenario))
	}
	return results
}

// runBenchmarkSuite runs both no-history and history benchmarks for a scenario
func runBenchmarkSuite(config BenchmarkConfig, scenario BenchmarkScenario) BenchmarkResult {
	fmt.Printf("Running %s %s\n", scenario.Command, scenario.Name)

	dbPath := filepath.Join(config.WorkDir, fmt.Sprintf("bench_%s.db", scenario.Name))
	_ = os.Remove(dbPath)
	defer func() { _ = os.Remove(dbPath) }()

	runPhase := func(historyArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, scenario, historyArgs, numRuns)
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

	// Phase 1: no history recording
	_, noHistoryAvg := runPhase([]string{"--history-backend", "none"}, config.NoHistoryRuns, "No-history")

	// Phase 2: SQLite history, created by the first run
	historyArgs := []string{"--history-backend", "sqlite", "--history-db-connect", dbPath}
	coldTime, warmAvg := runPhase(historyArgs, config.HistoryRuns, "History")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-history average: %s, Cold time: %s, Warm average: %s\n", noHistoryAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Scenario:      scenario.Name,
		Command:       scenario.Command,
		NoHistoryTime: noHistoryAvg,
		ColdTime:      coldTimeStr,
		WarmTime:      warmAvg,
	}
}

// runBenchmark executes a binforecast command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, scenario BenchmarkScenario, historyArgs []string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{scenario.Command, "--offline", "--color", "no", "--output", "csv"}
	args = append(args, historyArgs...)
	args = append(args, strings.Fields(scenario.Args)...)

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("binforecast", args...)
		cmd.Dir = config.WorkDir

		done := make(chan bool, 1)
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

// isSuccess checks that the command printed something and no warning
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return len(strings.TrimSpace(outputStr)) > 0 && !strings.Contains(outputStr, "Warning")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/binforecast_benchmark_%s.csv", timestamp)

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

	if err := writer.Write([]string{"scenario", "cmd", "no_history_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Scenario, result.Command, result.NoHistoryTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "forecast", "Forecast:")
	printCommandSummary(results, "range", "Range:")
	printCommandSummary(results, "summary", "Summary:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-10s: No-history: %s, Cold: %s, Warm: %s\n", result.Scenario, result.NoHistoryTime, result.ColdTime, result.WarmTime)
		}
	}
}
