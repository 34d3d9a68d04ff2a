package kv

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/lockforge/lockd/cmd/util"
	"github.com/lockforge/lockd/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for lockd servers",
		Long:    "",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

// perfResult bundles the throughput numbers from testing.Benchmark with the
// latency quantiles sampled during the run
type perfResult struct {
	bench     testing.BenchmarkResult
	latencies gometrics.Histogram
}

func init() {
	// add flags
	key := "skip"
	KeyValueCommands.PersistentFlags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	KeyValueCommands.PersistentFlags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	KeyValueCommands.PersistentFlags().Int(key, 1000, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	KeyValueCommands.PersistentFlags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for lockd servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]perfResult)

	// runBenchmark runs a single named benchmark. The setup function fills
	// the store before the timer starts, op performs one operation and is
	// called from multiple goroutines.
	runBenchmark := func(name string, setup func(iter func(func(string))), op func(key string) error) {
		if shouldSkip(name) {
			results[name] = perfResult{}
			printResult(name, results[name])
			return
		}

		// prepare keys
		getKey, iter := getKeys(name)

		// Sample op latencies into an exponentially decaying reservoir
		hist := gometrics.NewHistogram(gometrics.NewExpDecaySample(1028, 0.015))

		bench := testing.Benchmark(func(b *testing.B) {
			if setup != nil {
				setup(iter)
			}

			// cleanup
			b.Cleanup(func() {
				iter(func(k string) {
					if err := rpcStore.Delete(k); err != nil {
						log.Printf("(%s) - error deleting key: %v\n", name, err)
					}
				})
			})

			b.SetParallelism(perfNumThreads)

			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				counter := 0
				for pb.Next() {
					start := time.Now()
					if err := op(getKey(counter)); err != nil {
						log.Printf("(%s) - operation error: %v\n", name, err)
					}
					hist.Update(time.Since(start).Nanoseconds())
					counter++
				}
			})
		})

		results[name] = perfResult{bench: bench, latencies: hist}
		printResult(name, results[name])
	}

	// fills all keys with a small value before the timer starts
	prefill := func(iter func(func(string))) {
		iter(func(k string) {
			if err := rpcStore.Set(k, []byte("test"), 0); err != nil {
				log.Printf("error setting key: %v\n", err)
			}
		})
	}

	largeValue := make([]byte, perfLargeValueSizeKB*1024)

	runBenchmark("set", nil, func(key string) error {
		return rpcStore.Set(key, []byte("test"), 0)
	})

	runBenchmark("set-large", nil, func(key string) error {
		return rpcStore.Set(key, largeValue, 0)
	})

	runBenchmark("setnx", prefill, func(key string) error {
		// keys exist, so this measures the contended path
		_, err := rpcStore.SetIfAbsent(key, []byte("test"), 0)
		return err
	})

	runBenchmark("get", prefill, func(key string) error {
		_, _, err := rpcStore.Get(key)
		return err
	})

	runBenchmark("delete", prefill, func(key string) error {
		return rpcStore.Delete(key)
	})

	runBenchmark("incr", nil, func(key string) error {
		_, err := rpcStore.Increment(key)
		return err
	})

	runBenchmark("has", prefill, func(key string) error {
		_, err := rpcStore.Has(key)
		return err
	})

	runBenchmark("has-not", nil, func(key string) error {
		_, err := rpcStore.Has(key + "-missing")
		return err
	})

	mixedCounter := 0
	runBenchmark("mixed", prefill, func(key string) error {
		mixedCounter++
		switch mixedCounter % 4 {
		case 0:
			return rpcStore.Set(key, []byte("test"), 0)
		case 1:
			_, _, err := rpcStore.Get(key)
			return err
		case 2:
			return rpcStore.Delete(key)
		default:
			_, err := rpcStore.Has(key)
			return err
		}
	})

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result perfResult) {
	if result.bench.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	quantiles := result.latencies.Percentiles([]float64{0.5, 0.95, 0.99})

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p95=%s p99=%s\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		time.Duration(quantiles[0]), time.Duration(quantiles[1]), time.Duration(quantiles[2]))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]perfResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50Ns", "P95Ns", "P99Ns", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"ShardID", "Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var p50, p95, p99 float64
		var skipped string

		if result.bench.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.bench.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
			quantiles := result.latencies.Percentiles([]float64{0.5, 0.95, 0.99})
			p50, p95, p99 = quantiles[0], quantiles[1], quantiles[2]
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			fmt.Sprintf("%.0f", p50),
			fmt.Sprintf("%.0f", p95),
			fmt.Sprintf("%.0f", p99),
			skipped,
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.Itoa(config.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
