// Package main provides a performance benchmarking tool for the barrace CLI.
// It generates synthetic datasets of increasing size, renders each one with
// several output formats, running each test multiple times, and writes the
// average times to a CSV file for performance analysis and documentation.
//
// Prerequisites:
// - barrace binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the synthetic datasets and outputs are written
package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DatasetShape describes one synthetic dataset.
type DatasetShape struct {
	Name     string
	Entities int
	Years    int
}

// BenchmarkResult holds the average time of a render configuration.
type BenchmarkResult struct {
	Dataset string
	Output  string
	Frames  int
	AvgTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir   string
	Timeout   time.Duration
	Runs      int
	FrameRate int
	Duration  int
	TopN      int
	Shapes    []DatasetShape
	Outputs   []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:   os.Args[1],
		Timeout:   5 * time.Minute,
		Runs:      3,
		FrameRate: 60,
		Duration:  30,
		TopN:      10,
		Shapes: []DatasetShape{
			{Name: "small", Entities: 10, Years: 50},
			{Name: "medium", Entities: 200, Years: 65},
			{Name: "large", Entities: 2000, Years: 100},
		},
		Outputs: []string{"json", "csv", "parquet"},
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

// checkPrerequisites verifies that the barrace binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("barrace"); err != nil {
		return fmt.Errorf("barrace binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// writeSyntheticDataset writes a dataset where every entity grows at its own
// rate with a periodic wobble, so ranks keep crossing.
func writeSyntheticDataset(path string, shape DatasetShape) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	header := []string{"Year"}
	for e := range shape.Entities {
		header = append(header, fmt.Sprintf("Entity%04d", e))
	}
	header = append(header, "Milestone")
	if err := writer.Write(header); err != nil {
		return err
	}

	for y := range shape.Years {
		row := []string{strconv.Itoa(1950 + y)}
		for e := range shape.Entities {
			growth := 1 + float64(e%17)/100
			wobble := 1 + 0.2*math.Sin(float64(y+e)/5)
			value := 100 * math.Pow(growth, float64(y)) * wobble
			row = append(row, strconv.FormatFloat(value, 'f', 2, 64))
		}
		milestone := ""
		if y%10 == 0 {
			milestone = fmt.Sprintf("Decade %d", 1950+y)
		}
		row = append(row, milestone)
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// runBenchmarks executes every output format against every dataset shape
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult
	frames := config.FrameRate * config.Duration

	fmt.Printf("Starting benchmark: %d datasets, %d outputs, %d frames, %d runs each\n",
		len(config.Shapes), len(config.Outputs), frames, config.Runs)

	for _, shape := range config.Shapes {
		datasetPath := filepath.Join(config.WorkDir, shape.Name+".csv")
		if err := writeSyntheticDataset(datasetPath, shape); err != nil {
			fmt.Printf("Skipping %s: %v\n", shape.Name, err)
			continue
		}
		fmt.Printf("Benchmarking %s (%d entities x %d years)\n", shape.Name, shape.Entities, shape.Years)

		for _, output := range config.Outputs {
			times := runBenchmark(config, datasetPath, output)
			avgTime := "TIMEOUT"
			if len(times) > 0 {
				var sum float64
				for _, t := range times {
					sum += t
				}
				avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
			}
			fmt.Printf("  %-8s average: %s\n", output, avgTime)
			results = append(results, BenchmarkResult{
				Dataset: shape.Name,
				Output:  output,
				Frames:  frames,
				AvgTime: avgTime,
			})
		}
	}

	return results
}

// runBenchmark renders a dataset several times and returns the successful run times
func runBenchmark(config BenchmarkConfig, datasetPath, output string) []float64 {
	outputFile := filepath.Join(config.WorkDir, filepath.Base(datasetPath)+"."+output)
	args := []string{
		"render", datasetPath,
		"--output", output,
		"--output-file", outputFile,
		"--frame-rate", strconv.Itoa(config.FrameRate),
		"--duration", strconv.Itoa(config.Duration),
		"--top-n", strconv.Itoa(config.TopN),
		"--cache-backend", "none",
	}

	var times []float64
	for range config.Runs {
		start := time.Now()

		cmd := exec.Command("barrace", args...)

		done := make(chan bool)
		var out []byte
		var cmdErr error

		go func() {
			out, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(out) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}
	return times
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Rendered") && strings.Contains(outputStr, "frames in")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("barrace_benchmark_%s.csv", timestamp))

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

	if err := writer.Write([]string{"dataset", "output", "frames", "avg_time"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Output, strconv.Itoa(result.Frames), result.AvgTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-8s %-8s: %s\n", result.Dataset, result.Output, result.AvgTime)
	}
}
