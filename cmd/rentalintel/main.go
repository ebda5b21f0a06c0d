package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"rentalintel/internal/aggregate"
	"rentalintel/internal/config"
	"rentalintel/internal/dispatch"
	"rentalintel/internal/insight"
	"rentalintel/internal/llm"
	"rentalintel/internal/llmclient"
	"rentalintel/internal/pipeline"
	"rentalintel/internal/report"
	"rentalintel/internal/source"
	"rentalintel/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	entities := flag.String("entities", "", "comma-separated entity ids (required)")
	offline := flag.Bool("offline", false, "use the built-in fake model and simulated sources")
	provider := flag.String("provider", cfg.Provider, "LLM provider: gemini or groq")
	model := flag.String("model", cfg.Model, "model id")
	outDir := flag.String("out", cfg.StoreDir, "report store directory")
	seed := flag.Int64("seed", 42, "seed for simulated sources")
	archive := flag.Bool("archive", false, "archive report to object storage")
	flag.Parse()

	ids := splitIDs(*entities)
	if len(ids) == 0 {
		log.Fatal("--entities is required")
	}

	ctx := context.Background()

	llmCli, err := buildClient(ctx, *offline, *provider, *model)
	if err != nil {
		log.Fatal(err)
	}
	defer llmCli.Close()

	wrapped := llm.Wrap(llmCli,
		llm.RateLimit(cfg.RPS, cfg.Burst),
		llm.WithLogging(log.Default()),
	)

	connectors, err := buildConnectors(*offline, *seed)
	if err != nil {
		log.Fatal(err)
	}

	p := &pipeline.Pipeline{
		Aggregator: &aggregate.Aggregator{
			Connectors:    connectors,
			MaxConcurrent: cfg.MaxConcurrent,
		},
		Engine: &insight.Engine{
			LLM:             wrapped,
			MaxConcurrent:   cfg.MaxConcurrent,
			MaxAttempts:     cfg.MaxAttempts,
			BaseDelay:       cfg.BaseDelay,
			ReviewThreshold: cfg.ReviewThreshold,
		},
		Dispatcher: &dispatch.Dispatcher{
			Rules:          dispatch.DefaultRules(),
			Executors:      dispatch.SimulatedExecutors(log.Default()),
			AutoExecutable: dispatch.DefaultAutoExecutable(),
			AutoThreshold:  cfg.AutoThreshold,
		},
		Timeout: cfg.Timeout,
	}
	if cfg.ModelCallBudget > 0 {
		p.Broker = llm.NewBroker(llm.NewLimiter(cfg.RPS, cfg.Burst), int(cfg.ModelCallBudget))
	}

	log.Printf("run start: %d entities, model %s", len(ids), wrapped.Name())
	res, runErr := p.Run(ctx, ids)
	if runErr != nil && !errors.Is(runErr, pipeline.ErrNoUsableData) {
		log.Fatal(runErr)
	}

	st := store.NewFromEnv(*outDir)
	defer st.Close()
	if err := st.Put(res.Report); err != nil {
		log.Fatal(err)
	}
	if n := len(res.Report.Pending); n > 0 {
		log.Printf("%d actions await review; the review server picks them up from the store", n)
	}

	summary := report.Render(res.Report)
	fmt.Println(summary)

	if *archive && cfg.Archive.Enabled {
		arc, err := store.NewS3Archive(store.S3Config{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			log.Fatal(err)
		}
		if err := arc.Archive(ctx, res.Report, summary); err != nil {
			log.Fatal(err)
		}
		log.Printf("archived report %s to %s", res.RunID, cfg.Archive.Bucket)
	}

	if errors.Is(runErr, pipeline.ErrNoUsableData) {
		log.Printf("run %s produced no usable data; see report diagnostics", res.RunID)
		os.Exit(1)
	}
	log.Printf("run %s complete: %d insights, %d actions", res.RunID, len(res.Insights), len(res.Actions))
}

func buildClient(ctx context.Context, offline bool, provider, model string) (llmclient.LLMClient, error) {
	if offline {
		return llm.NewFakeClient(0), nil
	}
	switch provider {
	case "groq":
		apiKey := os.Getenv("GROQ_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is not set")
		}
		return llmclient.NewGroqClient(apiKey, model, 0)
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
		return llmclient.NewGeminiClient(ctx, apiKey, model, 0)
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

func buildConnectors(offline bool, seed int64) ([]source.Connector, error) {
	if offline {
		return source.Simulated(seed), nil
	}
	var conns []source.Connector
	for _, s := range []string{"BOOKINGS", "REVIEWS", "MAINTENANCE", "PRICING"} {
		name := strings.ToLower(s)
		if url := os.Getenv("SOURCE_" + s + "_URL"); url != "" {
			conns = append(conns, source.NewHTTPConnector(name, url, os.Getenv("SOURCE_"+s+"_API_KEY")))
			continue
		}
		if dsn := os.Getenv("SOURCE_" + s + "_PG_DSN"); dsn != "" {
			pc, err := source.NewPostgresConnector(name, dsn, os.Getenv("SOURCE_"+s+"_PG_TABLE"))
			if err != nil {
				return nil, err
			}
			conns = append(conns, pc)
		}
	}
	if len(conns) == 0 {
		return nil, fmt.Errorf("no sources configured; set SOURCE_*_URL / SOURCE_*_PG_DSN or pass --offline")
	}
	return conns, nil
}

func splitIDs(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
