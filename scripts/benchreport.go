package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BenchResult is one parsed benchmark line.
type BenchResult struct {
	Name        string
	Operation   string
	Config      string
	Cells       string
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ConfigComparison compares one configuration against the Balanced
// baseline for a single operation and workload size.
type ConfigComparison struct {
	Operation  string
	Cells      string
	Config     string
	NsPerOp    float64
	BaselineNs float64
	Ratio      float64
	BytesPerOp int64
	Allocs     int64
}

// baselineConfig is the configuration every other one is measured against.
const baselineConfig = "Balanced"

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	var scanner *bufio.Scanner
	var inputF *os.File
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		inputF = f
		scanner = bufio.NewScanner(f)
	} else {
		scanner = bufio.NewScanner(os.Stdin)
	}

	results := parseBenchmarks(scanner)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	comparisons := compareConfigs(results)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Generated %d comparisons\n", len(comparisons))
	}

	report := generateMarkdownReport(comparisons, results)

	if *outputFile != "" {
		err := os.WriteFile(*outputFile, []byte(report), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			if inputF != nil {
				inputF.Close()
			}
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
	} else {
		fmt.Fprint(os.Stdout, report)
	}

	if inputF != nil {
		inputF.Close()
	}
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchResult {
	var results []BenchResult

	// Regex to parse benchmark output lines
	// BenchmarkCollect/Balanced/10000-8    500    2450133 ns/op    4096 B/op    8 allocs/op
	benchmarkRegex := regexp.MustCompile(
		`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+B/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
	)

	for scanner.Scan() {
		line := scanner.Text()

		// Unwrap test2json lines (from -json flag).
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)

		var bytesPerOp int64
		var allocsPerOp int64

		if matches[4] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}

		operation, config, cells := splitBenchName(name)

		results = append(results, BenchResult{
			Name:        name,
			Operation:   operation,
			Config:      config,
			Cells:       cells,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

// splitBenchName decomposes Benchmark<Operation>/<config>[/<cells>]-<procs>.
// Benchmarks without a config segment apply to every configuration and are
// reported separately.
func splitBenchName(name string) (operation, config, cells string) {
	parts := strings.Split(name, "/")

	operation = strings.TrimPrefix(parts[0], "Benchmark")

	// The -N procs suffix rides on the last segment.
	last := len(parts) - 1
	if dashIdx := strings.LastIndex(parts[last], "-"); dashIdx > 0 {
		parts[last] = parts[last][:dashIdx]
	}

	if len(parts) >= 2 {
		config = parts[1]
	}
	if len(parts) >= 3 {
		cells = parts[2]
	}
	return operation, config, cells
}

func compareConfigs(results []BenchResult) []ConfigComparison {
	// Group results by operation and workload size, keyed per config.
	type key struct {
		operation string
		cells     string
	}

	grouped := make(map[key]map[string]BenchResult)

	for _, result := range results {
		if result.Config == "" {
			continue
		}
		k := key{result.Operation, result.Cells}
		if grouped[k] == nil {
			grouped[k] = make(map[string]BenchResult)
		}
		grouped[k][result.Config] = result
	}

	var comparisons []ConfigComparison

	for k, configs := range grouped {
		baseline, hasBaseline := configs[baselineConfig]

		for config, result := range configs {
			comp := ConfigComparison{
				Operation:  k.operation,
				Cells:      k.cells,
				Config:     config,
				NsPerOp:    result.NsPerOp,
				BytesPerOp: result.BytesPerOp,
				Allocs:     result.AllocsPerOp,
			}
			if hasBaseline && result.NsPerOp > 0 {
				comp.BaselineNs = baseline.NsPerOp
				comp.Ratio = baseline.NsPerOp / result.NsPerOp
			}
			comparisons = append(comparisons, comp)
		}
	}

	// Sort by operation, then workload size, then config.
	sort.Slice(comparisons, func(i, j int) bool {
		if comparisons[i].Operation != comparisons[j].Operation {
			return comparisons[i].Operation < comparisons[j].Operation
		}
		if comparisons[i].Cells != comparisons[j].Cells {
			return comparisons[i].Cells < comparisons[j].Cells
		}
		return comparisons[i].Config < comparisons[j].Config
	})

	return comparisons
}

func generateMarkdownReport(comparisons []ConfigComparison, results []BenchResult) string {
	var sb strings.Builder

	sb.WriteString("# Size Class Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	// Fastest config per operation/workload group.
	type groupKey struct {
		operation string
		cells     string
	}
	fastest := make(map[groupKey]ConfigComparison)
	for _, comp := range comparisons {
		k := groupKey{comp.Operation, comp.Cells}
		best, seen := fastest[k]
		if !seen || comp.NsPerOp < best.NsPerOp {
			fastest[k] = comp
		}
	}

	var groups []groupKey
	for k := range fastest {
		groups = append(groups, k)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].operation != groups[j].operation {
			return groups[i].operation < groups[j].operation
		}
		return groups[i].cells < groups[j].cells
	})

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Benchmark lines parsed**: %d\n", len(results)))
	sb.WriteString(fmt.Sprintf("- **Configuration comparisons**: %d\n", len(comparisons)))
	sb.WriteString(fmt.Sprintf("- **Baseline configuration**: %s\n\n", baselineConfig))

	sb.WriteString("### Fastest Configuration per Workload\n\n")
	for _, k := range groups {
		best := fastest[k]
		label := k.operation
		if k.cells != "" {
			label = fmt.Sprintf("%s (%s cells)", k.operation, k.cells)
		}
		sb.WriteString(fmt.Sprintf("- **%s**: %s at %s ns/op\n",
			label, best.Config, formatNumber(best.NsPerOp)))
	}
	sb.WriteString("\n")

	sb.WriteString("## Detailed Results\n\n")
	sb.WriteString(
		"| Operation | Cells | Config | ns/op | vs Balanced | Memory (B/op) | Allocs |\n",
	)
	sb.WriteString(
		"|-----------|-------|--------|-------|-------------|---------------|--------|\n",
	)

	for _, comp := range comparisons {
		ratio := "*baseline*"
		if comp.Config != baselineConfig {
			if comp.Ratio > 0 {
				ratio = fmt.Sprintf("%.2fx", comp.Ratio)
			} else {
				ratio = "*n/a*"
			}
		}
		cells := comp.Cells
		if cells == "" {
			cells = "-"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n",
			comp.Operation,
			cells,
			comp.Config,
			formatNumber(comp.NsPerOp),
			ratio,
			formatBytes(comp.BytesPerOp),
			formatNumber(float64(comp.Allocs)),
		))
	}
	sb.WriteString("\n")

	// Config-independent benchmarks run without a config segment.
	var standalone []BenchResult
	for _, result := range results {
		if result.Config == "" {
			standalone = append(standalone, result)
		}
	}
	if len(standalone) > 0 {
		sb.WriteString("## Configuration-Independent Benchmarks\n\n")
		sb.WriteString("| Operation | ns/op | Memory (B/op) | Allocs |\n")
		sb.WriteString("|-----------|-------|---------------|--------|\n")
		for _, result := range standalone {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				result.Operation,
				formatNumber(result.NsPerOp),
				formatBytes(result.BytesPerOp),
				formatNumber(float64(result.AllocsPerOp)),
			))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Notes\n\n")
	sb.WriteString("- **vs Balanced > 1.0**: this configuration is faster than Balanced\n")
	sb.WriteString("- **vs Balanced < 1.0**: this configuration is slower than Balanced\n")
	sb.WriteString("- **Memory / Allocs**: per benchmark iteration, lower is better\n")
	sb.WriteString("- Generate input with: go test -bench . -benchmem ./gc/\n")

	return sb.String()
}

func formatNumber(n float64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.2fM", n/1000000)
	} else if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return fmt.Sprintf("%.0f", n)
}

func formatBytes(b int64) string {
	if b >= 1024*1024 {
		return fmt.Sprintf("%.2fMB", float64(b)/(1024*1024))
	} else if b >= 1024 {
		return fmt.Sprintf("%.1fKB", float64(b)/1024)
	}
	return fmt.Sprintf("%dB", b)
}
