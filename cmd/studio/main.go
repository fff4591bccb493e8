package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/draftstudio/engine/internal/config"
	"github.com/draftstudio/engine/internal/llm"
	"github.com/draftstudio/engine/internal/logging"
	"github.com/draftstudio/engine/internal/pipeline"
	"github.com/draftstudio/engine/internal/store"
)

// #region main
func main() {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	persona := flag.String("persona", "", "persona for this session")
	contentType := flag.String("content-type", "", "content type for this session")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *persona == "" || *contentType == "" {
		fmt.Fprintln(os.Stderr, "usage: studio --persona NAME --content-type TYPE [--config file.yaml]")
		os.Exit(2)
	}

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()
	if err := logging.Init(st.DB()); err != nil {
		log.Fatalf("failed to init decision log: %v", err)
	}

	client, err := llm.NewClient(llm.Config{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		JudgeModel: cfg.LLM.JudgeModel,
		EmbedModel: cfg.LLM.EmbedModel,
		Timeout:    cfg.Timeout(),
	})
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	engine := pipeline.NewEngine(st, client, rng)
	indexer := llm.NewIndexer(st, client)

	fmt.Println("Draft Studio ready.")
	fmt.Printf("  DB: %s | Model: %s | Segment: %s/%s\n", cfg.DBPath, cfg.LLM.Model, *persona, *contentType)
	fmt.Println("Type a brief (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		brief := strings.TrimSpace(scanner.Text())
		if brief == "" {
			continue
		}
		if brief == "quit" || brief == "exit" {
			break
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		res, err := engine.Run(ctx, pipeline.Request{
			Persona:     *persona,
			ContentType: *contentType,
			Brief:       brief,
			Boundaries:  cfg.Generation.Boundaries,
			N:           cfg.Generation.BatchSize,
		})
		if err != nil {
			cancel()
			log.Printf("run error: %v", err)
			continue
		}

		printResult(st, res)

		// Backfill embeddings for the drafts this run produced.
		if n, err := indexer.IndexPending(ctx, 32); err != nil {
			log.Printf("indexing error: %v", err)
		} else if n > 0 {
			fmt.Printf("indexed %d items\n", n)
		}
		cancel()
	}
}

// #endregion main

// #region print
func printResult(st *store.Store, res pipeline.Result) {
	fmt.Printf("\narm=%s mode=%s epsilon=%.3f phase=%s refs=%d fallback=%t\n",
		res.Selection.Arm.Name, res.Selection.Mode, res.Selection.Epsilon,
		res.Phase, len(res.References), res.Fallback)

	for i, r := range res.Ranked {
		it, err := st.GetItem(r.ItemID)
		if err != nil {
			log.Printf("read draft %s: %v", r.ItemID, err)
			continue
		}
		fmt.Printf("\n#%d [%.2f] %s (%s)\n", i+1, r.Composite, it.Title, it.Compliance)
		fmt.Printf("  hook: %s\n", it.Hook)
		for _, b := range it.Beats {
			fmt.Printf("  - %s\n", b)
		}
		if it.Caption != "" {
			fmt.Printf("  caption: %s\n", it.Caption)
		}
		if v, ok := res.Verdicts[r.ItemID]; ok && v.Fallback {
			fmt.Println("  (judge unavailable, neutral score)")
		}
	}

	fmt.Printf("\nreward=%.4f success_rate=%.4f nudged=%t\n",
		res.Reward, res.Update.Policy.SuccessRate, res.Update.Nudged)
}

// #endregion print
