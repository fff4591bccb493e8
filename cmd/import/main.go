package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/draftstudio/engine/internal/compliance"
	"github.com/draftstudio/engine/internal/store"
)

// #region line-format

// importLine is one JSONL record. Scripts import as references by default;
// embeddings are backfilled later by the studio's indexer.
type importLine struct {
	Persona     string   `json:"persona"`
	ContentType string   `json:"content_type"`
	Tone        string   `json:"tone"`
	Title       string   `json:"title"`
	Hook        string   `json:"hook"`
	Beats       []string `json:"beats"`
	Voiceover   string   `json:"voiceover"`
	Caption     string   `json:"caption"`
	CTA         string   `json:"cta"`
	IsReference *bool    `json:"is_reference,omitempty"`
}

// #endregion line-format

// #region main

func main() {
	dbPath := flag.String("db", "", "path to draftstudio.db")
	filePath := flag.String("file", "", "path to JSONL file of scripts")
	flag.Parse()

	if *dbPath == "" || *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: import --db path/to/draftstudio.db --file scripts.jsonl")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	f, err := os.Open(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	imported, flagged, skipped := 0, 0, 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line importLine
		if err := json.Unmarshal(raw, &line); err != nil {
			log.Printf("line %d: bad JSON, skipping: %v", lineNum, err)
			skipped++
			continue
		}

		it := store.Item{
			Persona:     line.Persona,
			ContentType: line.ContentType,
			Tone:        line.Tone,
			Title:       line.Title,
			Hook:        line.Hook,
			Beats:       line.Beats,
			Voiceover:   line.Voiceover,
			Caption:     line.Caption,
			CTA:         line.CTA,
			Source:      store.SourceImport,
			IsReference: line.IsReference == nil || *line.IsReference,
		}

		check := compliance.CheckItem(&it)
		it.Compliance = check.Level
		if check.Level != store.CompliancePass {
			log.Printf("line %d: compliance %s: %v", lineNum, check.Level, check.Reasons)
			flagged++
		}

		if _, err := st.InsertItem(it); err != nil {
			log.Printf("line %d: insert failed, skipping: %v", lineNum, err)
			skipped++
			continue
		}
		imported++
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "read file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("imported=%d flagged=%d skipped=%d\n", imported, flagged, skipped)
}

// #endregion main
