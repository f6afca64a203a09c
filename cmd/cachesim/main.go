// Package main provides the entry point for cachesim, a trace-driven
// multi-level cache hierarchy simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/akita/v4/datarecording"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/hierarchy"
	"github.com/sarchlab/cachesim/trace"
)

var (
	configPath = flag.String("config", "", "Path to configuration JSON file (overrides geometry flags)")
	l1Cap      = flag.Uint64("c", 15, "log2 of L1 data store size in bytes")
	blockBits  = flag.Uint64("b", 5, "log2 of block size in bytes")
	l1Ways     = flag.Uint64("s", 3, "log2 of L1 ways per set")
	l2Cap      = flag.Uint64("C", 18, "log2 of L2 data store size in bytes")
	l2Ways     = flag.Uint64("S", 4, "log2 of L2 ways per set")
	victim     = flag.Uint64("V", 4, "number of victim cache blocks (0 disables)")
	prefetch   = flag.Uint64("k", 2, "number of blocks to prefetch into L2 (0 disables)")
	recordPath = flag.String("record", "", "Record per-access outcomes to <path>.sqlite3")
	verbose    = flag.Bool("v", false, "Verbose per-access output")
)

// accessRecord is the row shape persisted for each access when recording is
// enabled.
type accessRecord struct {
	Seq               int    `json:"seq"`
	Address           uint64 `json:"address"`
	Write             bool   `json:"write"`
	ServedBy          string `json:"served_by"`
	Writebacks        uint64 `json:"writebacks"`
	PrefetchEvictions uint64 `json:"prefetch_evictions"`
	UsedPrefetched    bool   `json:"used_prefetched"`
}

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: cachesim [options] <trace file | ->\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	config, err := buildConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	h, err := hierarchy.New(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tracePath := flag.Arg(0)
	accesses, err := loadTrace(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var recorder datarecording.DataRecorder
	if *recordPath != "" {
		recorder = datarecording.NewDataRecorder(*recordPath)
		recorder.CreateTable("access", accessRecord{})
	}

	for i, a := range accesses {
		out := h.Access(a.Addr, a.Write)

		if *verbose {
			fmt.Printf("%s 0x%x -> %s\n", rw(a.Write), a.Addr, out.ServedBy)
		}

		if recorder != nil {
			recorder.InsertData("access", accessRecord{
				Seq:               i,
				Address:           out.Address,
				Write:             out.Write,
				ServedBy:          out.ServedBy.String(),
				Writebacks:        out.Writebacks,
				PrefetchEvictions: out.PrefetchEvictions,
				UsedPrefetched:    out.UsedPrefetched,
			})
		}
	}

	printReport(tracePath, h.Stats(), config)

	if recorder != nil {
		recorder.Flush()
		// Registered recorder cleanups only run through atexit.
		atexit.Exit(0)
	}
}

func rw(write bool) string {
	if write {
		return "w"
	}

	return "r"
}

// buildConfig assembles the run configuration from the config file if one
// is given, otherwise from the geometry flags.
func buildConfig() (hierarchy.Config, error) {
	if *configPath != "" {
		return hierarchy.LoadConfig(*configPath)
	}

	config := hierarchy.DefaultConfig()
	config.L1Capacity = *l1Cap
	config.L1Ways = *l1Ways
	config.L2Capacity = *l2Cap
	config.L2Ways = *l2Ways
	config.BlockSize = *blockBits
	config.VictimBlocks = *victim
	config.PrefetchDepth = *prefetch

	return config, nil
}

func loadTrace(path string) ([]trace.Access, error) {
	if path == "-" {
		return trace.Parse(os.Stdin)
	}

	return trace.ParseFile(path)
}

func printReport(tracePath string, stats hierarchy.Statistics, config hierarchy.Config) {
	fmt.Printf("Trace: %s\n", tracePath)
	fmt.Printf("Accesses: %d (%d reads, %d writes)\n",
		stats.Accesses, stats.Reads, stats.Writes)
	fmt.Printf("\n")
	fmt.Printf("L1:\n")
	fmt.Printf("  Hits:      %8d (%5.1f%%)\n", stats.L1Hits, 100*stats.L1HitRate())
	fmt.Printf("  Misses:    %8d\n", stats.L1Misses)
	fmt.Printf("  Evictions: %8d\n", stats.L1Evictions)
	fmt.Printf("Victim cache:\n")
	fmt.Printf("  Hits:      %8d (%5.1f%%)\n", stats.VictimHits, 100*stats.VictimHitRate())
	fmt.Printf("  Misses:    %8d\n", stats.VictimMisses)
	fmt.Printf("  Evictions: %8d\n", stats.VictimEvictions)
	fmt.Printf("L2:\n")
	fmt.Printf("  Hits:      %8d (%5.1f%%)\n", stats.L2Hits, 100*stats.L2HitRate())
	fmt.Printf("  Misses:    %8d\n", stats.L2Misses)
	fmt.Printf("  Evictions: %8d\n", stats.L2Evictions)
	fmt.Printf("Prefetch:\n")
	fmt.Printf("  Triggers:  %8d\n", stats.Prefetches)
	fmt.Printf("  Blocks:    %8d\n", stats.PrefetchedBlocks)
	fmt.Printf("  Useful:    %8d\n", stats.UsefulPrefetches)
	fmt.Printf("  Evictions: %8d\n", stats.PrefetchEvictions)
	fmt.Printf("\n")
	fmt.Printf("Memory fetches: %d\n", stats.MemoryFetches)
	fmt.Printf("Writebacks:     %d\n", stats.Writebacks)
	fmt.Printf("Miss rate:      %.4f\n", stats.MissRate())
	fmt.Printf("AAT:            %.2f cycles\n", stats.AverageAccessTime(config))
}
