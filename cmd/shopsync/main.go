// Command shopsync is a small demonstration client for the sync layer: it
// pages through the product catalog with the infinite-scroll engine, runs a
// search through the coordinator, and prints what the local slices hold.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/simp-lee/shopsync/internal/client"
	"github.com/simp-lee/shopsync/internal/config"
	"github.com/simp-lee/shopsync/internal/domain"
	"github.com/simp-lee/shopsync/internal/scroll"
	"github.com/simp-lee/shopsync/internal/search"
	"github.com/simp-lee/shopsync/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	query := flag.String("q", "", "optional search query to run after paging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logHandle, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		log.Fatal("failed to setup logger: ", err)
	}
	defer logHandle.Close()

	if err := run(cfg, *query, logHandle.Logger); err != nil {
		logHandle.Error("demo failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, query string, log *slog.Logger) error {
	opts := []client.Option{client.WithLogger(log)}
	if cfg.API.Token != "" {
		opts = append(opts, client.WithToken(cfg.API.Token))
	}
	if d := cfg.API.TimeoutDuration(); d > 0 {
		opts = append(opts, client.WithTimeout(d))
	}

	c, err := client.New(cfg.API.BaseURL, opts...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	var resOpts []client.ResourceOption
	if ttl := cfg.Sync.DetailCacheTTLDuration(); ttl > 0 {
		resOpts = append(resOpts, client.WithDetailCacheTTL(ttl))
	}
	products := client.NewResource[domain.Product](c, "products", resOpts...)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Mirror the catalog into a local store and page through it.
	catalog := store.New[domain.Product]("products", products, log)
	unsubscribe := catalog.Subscribe(func(snap store.Snapshot[domain.Product]) {
		state := snap.Op(store.OpFetchList)
		log.Debug("catalog transition",
			slog.String("status", string(state.Status)),
			slog.Int("items", len(snap.Items)),
		)
	})
	defer unsubscribe()

	engine := scroll.NewEngine(catalog.FetchList,
		scroll.WithPageSize[domain.Product](cfg.Sync.PageSize),
		scroll.WithDebounce[domain.Product](0),
		scroll.WithThreshold[domain.Product](cfg.Sync.ScrollThreshold),
		scroll.WithWindow[domain.Product](scroll.WindowConfig{
			ItemHeight:      cfg.Sync.ItemHeight,
			ContainerHeight: cfg.Sync.ContainerHeight,
			Overscan:        cfg.Sync.Overscan,
		}),
		scroll.WithLogger[domain.Product](log),
	)

	pages := 0
	for {
		n, err := engine.LoadMore(ctx)
		if err != nil {
			if domain.Retryable(err) {
				log.Warn("page load failed, retrying once", slog.Any("error", err))
				n, err = engine.LoadMore(ctx)
			}
			if err != nil {
				return fmt.Errorf("load page: %w", err)
			}
		}
		if n == 0 {
			break
		}
		pages++
	}

	state := engine.State()
	fmt.Printf("loaded %d products across %d pages (total %d)\n",
		len(state.Items), pages, state.Total)

	win := engine.Window(0)
	fmt.Printf("initial render window: rows [%d, %d)\n", win.Start, win.End)
	for _, p := range state.Items[win.Start:min(win.End, len(state.Items))] {
		fmt.Printf("  #%-4d %-40s %8.2f\n", p.ID, p.Name, float64(p.PriceCents)/100)
	}

	if query == "" {
		return nil
	}

	// Run one search through the coordinator, undebounced.
	coord := search.NewCoordinator(catalog.Search,
		search.WithDebounce[domain.Product](0),
		search.WithPageSize[domain.Product](cfg.Sync.PageSize),
		search.WithRecentCap[domain.Product](cfg.Sync.RecentQueryCap),
		search.WithSuggest[domain.Product](products.Suggest),
		search.WithLogger[domain.Product](log),
	)
	coord.SearchNow(ctx, query)

	result := coord.State()
	if result.Err != nil {
		return fmt.Errorf("search %q: %w", query, result.Err)
	}
	fmt.Printf("search %q matched %d products\n", result.Query, len(result.Results))
	for _, p := range result.Results {
		fmt.Printf("  #%-4d %s\n", p.ID, p.Name)
	}

	if suggestions, err := coord.Suggest(ctx, query); err == nil && len(suggestions) > 0 {
		fmt.Printf("suggestions: %v\n", suggestions)
	}
	return nil
}
