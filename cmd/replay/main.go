package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/draftstudio/engine/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("v", false, "print every step")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	results, summary := replay.Replay(fixture, replay.DefaultConfig())

	if fixture.Description != "" {
		fmt.Printf("%s\n\n", fixture.Description)
	}
	if *verbose {
		for _, r := range results {
			fmt.Printf("step %3d: arm=%-16s mode=%-8s eps=%.3f reward=%.4f nudged=%-5t success=%.4f phase=%s\n",
				r.Step, r.Arm, r.Mode, r.Epsilon, r.Reward, r.Nudged, r.SuccessRate, r.Phase)
		}
		fmt.Println()
	}

	fmt.Printf("steps=%d explores=%d exploits=%d nudges=%d phase=%s\n",
		summary.TotalSteps, summary.Explores, summary.Exploits, summary.Nudges, summary.FinalPhase)
	fmt.Printf("final: success_rate=%.4f generations=%d weights=%.3f/%.3f/%.3f/%.3f\n",
		summary.FinalPolicy.SuccessRate, summary.FinalPolicy.TotalGenerations,
		summary.FinalPolicy.SemanticWeight, summary.FinalPolicy.LexicalWeight,
		summary.FinalPolicy.QualityWeight, summary.FinalPolicy.FreshnessWeight)

	arms := make([]string, 0, len(summary.ArmCounts))
	for name := range summary.ArmCounts {
		arms = append(arms, name)
	}
	sort.Strings(arms)
	for _, name := range arms {
		fmt.Printf("  %-16s %d\n", name, summary.ArmCounts[name])
	}

	mismatches := replay.Verify(fixture, summary)
	for _, m := range mismatches {
		fmt.Fprintf(os.Stderr, "MISMATCH %s\n", m)
	}
	if len(mismatches) > 0 {
		os.Exit(1)
	}
	if fixture.Expected != nil {
		fmt.Println("expectations met")
	}
}

// #endregion main
