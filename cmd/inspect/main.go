package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/draftstudio/engine/internal/bandit"
	"github.com/draftstudio/engine/internal/logging"
	"github.com/draftstudio/engine/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to draftstudio.db")
	persona := flag.String("persona", "", "filter to one persona")
	contentType := flag.String("content-type", "", "filter to one content type")
	last := flag.Int("last", 20, "show N most recent decision-log entries")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/draftstudio.db [--persona P --content-type T] [--last N] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := run(st, *persona, *contentType, *last, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region policy-view

type policyRow struct {
	Persona     string     `json:"persona"`
	ContentType string     `json:"content_type"`
	Weights     [4]float64 `json:"weights"`
	Temps       [3]float64 `json:"temps"`
	SuccessRate float64    `json:"success_rate"`
	Generations int        `json:"generations"`
	Version     int64      `json:"version"`
	MatchedArm  string     `json:"matched_arm,omitempty"`
	Phase       string     `json:"phase"`
	UpdatedAt   string     `json:"updated_at"`
}

func run(st *store.Store, persona, contentType string, last int, jsonOut bool) error {
	policies, err := st.ListPolicies()
	if err != nil {
		return err
	}

	catalog := bandit.Catalog()
	cfg := bandit.DefaultConfig()

	var views []policyRow
	for _, p := range policies {
		if persona != "" && p.Persona != persona {
			continue
		}
		if contentType != "" && p.ContentType != contentType {
			continue
		}
		stats := bandit.Seed(catalog, &p, cfg.Tolerance)
		row := policyRow{
			Persona:     p.Persona,
			ContentType: p.ContentType,
			Weights:     p.Weights(),
			Temps:       [3]float64{p.TempLow, p.TempMid, p.TempHigh},
			SuccessRate: p.SuccessRate,
			Generations: p.TotalGenerations,
			Version:     p.Version,
			Phase:       bandit.Phase(catalog, stats, cfg),
			UpdatedAt:   p.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for _, arm := range catalog {
			if arm.MatchesPolicy(p, cfg.Tolerance) {
				row.MatchedArm = arm.Name
				break
			}
		}
		views = append(views, row)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	if len(views) == 0 {
		fmt.Fprintln(os.Stderr, "no policies found")
		return nil
	}
	fmt.Printf("%-16s %-12s %-28s %-16s %8s %6s %-12s %s\n",
		"PERSONA", "TYPE", "WEIGHTS (sem/lex/qual/fresh)", "TEMPS", "SUCCESS", "GENS", "ARM", "PHASE")
	for _, v := range views {
		fmt.Printf("%-16s %-12s %.2f/%.2f/%.2f/%.2f %18s %8.4f %6d %-12s %s\n",
			v.Persona, v.ContentType,
			v.Weights[0], v.Weights[1], v.Weights[2], v.Weights[3],
			fmt.Sprintf("%.2f/%.2f/%.2f", v.Temps[0], v.Temps[1], v.Temps[2]),
			v.SuccessRate, v.Generations, orDash(v.MatchedArm), v.Phase)
	}

	if persona != "" && contentType != "" {
		return printDecisions(st, persona, contentType, last)
	}
	return nil
}

// #endregion policy-view

// #region decision-view

func printDecisions(st *store.Store, persona, contentType string, last int) error {
	entries, err := logging.Recent(st.DB(), persona, contentType, last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	fmt.Printf("\nrecent decisions (%s/%s):\n", persona, contentType)
	for _, e := range entries {
		line := fmt.Sprintf("  %s %-9s %-16s", e.CreatedAt.Format("01-02 15:04:05"), e.Kind, e.Arm)
		if e.Kind == logging.KindSelection {
			line += fmt.Sprintf(" mode=%-8s eps=%.3f", e.Mode, e.Epsilon)
		} else {
			line += fmt.Sprintf(" reward=%.4f", e.Reward)
		}
		if e.Detail != "" {
			line += " " + e.Detail
		}
		fmt.Println(strings.TrimRight(line, " "))
	}
	return nil
}

// #endregion decision-view

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
