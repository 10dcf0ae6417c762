package main

import (
	"fmt"
	"time"

	"vocab-amas/internal/advisor"
	"vocab-amas/internal/confusion"
	"vocab-amas/internal/config"
	"vocab-amas/internal/engine"
	"vocab-amas/internal/forgetting"
	"vocab-amas/internal/llm"
	"vocab-amas/internal/members"
	"vocab-amas/internal/metrics"
	"vocab-amas/internal/paramstore"
	"vocab-amas/internal/rewardqueue"
	"vocab-amas/internal/selector"
	"vocab-amas/internal/storage"
	"vocab-amas/internal/userlock"
)

// app bundles every component amasctl's subcommands need, built once
// per invocation from the resolved config (spec.md §6's "configurable
// via environment variables", generalizing the teacher's
// InitializeServer / ServerComponents split in
// _examples/quanticsoul4772-unified-thinking/cmd/server/initializer.go
// from one MCP server's tool surface to this CLI's subcommands).
type app struct {
	cfg *config.Config
	db  *storage.DB

	engine      *engine.Engine
	advisor     *advisor.Loop
	params      paramstore.Store
	suggestions advisor.Store
	forgetting  *forgetting.Scanner
	alerts      *storage.ForgettingAlerts
}

// buildApp opens storage and wires every component a subcommand might
// need. Subcommands that don't need a given component (e.g. `params`
// doesn't need the full Engine) still pay the cost of building it,
// trading a little startup time for one obvious wiring path instead of
// a different partial one per subcommand.
func buildApp(cfg *config.Config) (*app, error) {
	db, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	paramStore, err := storage.NewParamStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("amasctl: initialize parameter store: %w", err)
	}

	rewards, err := buildRewardQueue(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	bins := int(config.Whitelist[config.KeyThompsonContextBins].Default)
	weight := config.Whitelist[config.KeyThompsonContextWeight].Default

	eng := engine.New()
	eng.Members = []members.Member{
		members.NewHeuristic(),
		members.NewThompson(1, bins, weight),
		members.NewLinUCB(0.5),
		members.NewACTRMember(),
	}
	if cfg.Reward.DefaultWindowSeconds > 0 {
		eng.RewardWindow = time.Duration(cfg.Reward.DefaultWindowSeconds) * time.Second
	}
	if cfg.Performance.UserLockShards > 0 {
		eng.Locks = userlock.New(cfg.Performance.UserLockShards)
	}

	catalog := storage.NewCatalog(db)
	eng.Review = catalog
	eng.WordMemory = storage.NewWordMemoryStore(db)
	eng.Interactions = catalog
	eng.Explain = storage.NewExplainStore(db)
	eng.Rewards = rewards
	eng.Selector = &selector.Selector{
		Review:    catalog,
		New:       catalog,
		Elo:       catalog,
		Random:    catalog,
		Confusion: confusion.NewGraphCache(),
		Config:    selector.DefaultConfig(),
	}

	rec := metrics.NewRecorder()
	eng.Metrics = rec
	eng.WeightMetrics = rec
	eng.RewardMetrics = rec

	suggestions := storage.NewAdvisorStore(db)
	loop := &advisor.Loop{
		LLM:         buildLLMClient(cfg),
		Metrics:     storage.NewMetricsSource(db),
		Suggestions: suggestions,
		Params:      paramStore,
		Timeout:     0,
	}

	alertStore := storage.NewForgettingAlerts(db)
	scanner := &forgetting.Scanner{
		States: storage.NewLearningStates(db),
		Alerts: alertStore,
	}

	return &app{
		cfg: cfg, db: db, engine: eng, advisor: loop, params: paramStore, suggestions: suggestions,
		forgetting: scanner, alerts: alertStore,
	}, nil
}

func (a *app) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func openStorage(cfg *config.Config) (*storage.DB, error) {
	if cfg.Storage.Type == "memory" {
		return storage.OpenMemory()
	}
	if cfg.Storage.SQLitePath == "" {
		return nil, fmt.Errorf("amasctl: storage.type is %q but no sqlite_path configured", cfg.Storage.Type)
	}
	return storage.Open(cfg.Storage.SQLitePath, 5000)
}

func buildRewardQueue(cfg *config.Config) (rewardqueue.Queue, error) {
	switch cfg.Reward.Backend {
	case "redis":
		return nil, fmt.Errorf("amasctl: redis reward backend requires a *redis.Client the CLI does not construct on its own; wire rewardqueue.NewRedisQueue from an embedding application instead")
	default:
		return rewardqueue.NewHeapQueue(), nil
	}
}

// buildLLMClient returns nil (heuristic-only advisor) unless an
// Anthropic API key is configured, matching spec.md §4.10's "LLM
// failures never abort the weekly job" by making the no-key case behave
// identically to an LLM failure.
func buildLLMClient(cfg *config.Config) llm.Client {
	apiKey := cfg.Advisor.APIKey
	if apiKey == "" {
		return nil
	}
	return llm.NewAnthropicClient(llm.AnthropicConfig{
		APIKey: apiKey,
		Model:  cfg.Advisor.Model,
	})
}
