// Command cookied runs one cookie-economy session behind the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/cookieworks/internal/api"
	"github.com/talgya/cookieworks/internal/config"
	"github.com/talgya/cookieworks/internal/effects"
	"github.com/talgya/cookieworks/internal/engine"
	"github.com/talgya/cookieworks/internal/entropy"
	"github.com/talgya/cookieworks/internal/persistence"
	"github.com/talgya/cookieworks/internal/vip"
)

func main() {
	cfg := config.ServerFromEnv()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("cookied starting")

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		slog.Error("failed to load tuning", "path", cfg.TuningPath, "error", err)
		os.Exit(1)
	}
	if cfg.TuningPath != "" {
		slog.Info("tuning loaded", "path", cfg.TuningPath)
	}

	// ── Database ──────────────────────────────────────────────────────
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── VIP ───────────────────────────────────────────────────────────
	var checker vip.Checker
	if c := vip.NewHTTPChecker(cfg.VIPServiceURL, cfg.VIPServiceKey); c != nil {
		checker = c
		slog.Info("VIP checks enabled", "url", cfg.VIPServiceURL, "account", cfg.AccountID)
	} else {
		slog.Warn("COOKIE_VIP_URL not set; offline income only trusts tiers set via the admin API after a pause")
	}

	// ── Session ───────────────────────────────────────────────────────
	hub := api.NewHub()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	fx := effects.NewBuffer(tuning.MaxEffects, seed)
	fx.SetSink(hub)

	opts := engine.Options{
		Tuning:    &tuning,
		Effects:   fx,
		VIP:       checker,
		AccountID: cfg.AccountID,
	}
	if cfg.Seed != 0 {
		opts.Random = entropy.NewSeeded(cfg.Seed)
		slog.Info("using seeded crit rolls", "seed", cfg.Seed)
	}

	sessionID, g, err := loadOrCreate(context.Background(), db, cfg.SessionID, opts)
	if err != nil {
		slog.Error("failed to start session", "error", err)
		os.Exit(1)
	}
	g.OnNotice = hub.PublishNotice

	save := func(snap engine.Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.SaveSnapshot(ctx, sessionID, snap); err != nil {
			slog.Error("autosave failed", "session", sessionID, "error", err)
		}
	}

	sched := engine.NewScheduler(g, tuning.TickInterval)
	sched.AutosaveEvery = uint64(cfg.AutosaveInterval / tuning.TickInterval)
	if sched.AutosaveEvery == 0 {
		sched.AutosaveEvery = 1
	}
	sched.OnAutosave = save

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("COOKIE_ADMIN_KEY not set; VIP and save endpoints will be disabled")
	}
	apiServer := &api.Server{
		Sched:     sched,
		DB:        db,
		Hub:       hub,
		SessionID: sessionID,
		Port:      cfg.Port,
		AdminKey:  cfg.AdminKey,
		ClickRate: cfg.ClicksPerSecond,
		Origins:   cfg.CORSOrigins,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		sched.Stop()
	}()

	st := g.State()
	fmt.Printf("\nBakery open: session %s, %s cookies, %d buildings, prestige %d.\n",
		sessionID, humanize.Commaf(float64(int64(st.Cookies))), st.BuildingsOwned(), st.PrestigeLevel)
	fmt.Printf("API: http://localhost:%d/api/v1/state\n", cfg.Port)
	fmt.Println("Baking... (Ctrl+C to stop)")

	sched.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}
	cancel()

	// Final save on shutdown. Pausing first stamps the offline window start.
	slog.Info("final save...")
	var final engine.Snapshot
	sched.Do(func(g *engine.Game) {
		g.FlushAchievements()
		g.PauseSession()
		final = g.Snapshot()
	})
	save(final)

	fmt.Println("Bakery closed. Session saved.")
}

// loadOrCreate restores sessionID (or the most recent save when empty) and
// resumes it, or starts a fresh session under a new id.
func loadOrCreate(ctx context.Context, db *persistence.DB, sessionID string, opts engine.Options) (string, *engine.Game, error) {
	if sessionID != "" {
		if _, err := uuid.Parse(sessionID); err != nil {
			return "", nil, fmt.Errorf("session id %q: %w", sessionID, err)
		}
	} else {
		latest, err := db.LatestSession(ctx)
		switch {
		case errors.Is(err, persistence.ErrNoSave):
		case err != nil:
			return "", nil, fmt.Errorf("find latest session: %w", err)
		default:
			sessionID = latest
		}
	}

	if sessionID != "" {
		ok, err := db.HasSave(ctx, sessionID)
		if err != nil {
			return "", nil, fmt.Errorf("check session %s: %w", sessionID, err)
		}
		if !ok {
			slog.Info("no save for session, starting fresh", "session", sessionID)
		} else {
			snap, err := db.LoadSnapshot(ctx, sessionID)
			if err != nil {
				return "", nil, err
			}
			g, err := engine.Restore(snap, opts)
			if err != nil {
				return "", nil, fmt.Errorf("restore session %s: %w", sessionID, err)
			}
			g.ResumeSession()
			st := g.State()
			slog.Info("session restored",
				"session", sessionID,
				"saved_at", snap.SavedAt,
				"version", snap.Version,
				"cookies", humanize.Commaf(st.Cookies),
				"cps", st.CookiesPerSecond,
				"achievements", len(st.UnlockedAchievements),
			)
			return sessionID, g, nil
		}
	} else {
		sessionID = uuid.NewString()
		slog.Info("no saved session found, starting fresh", "session", sessionID)
	}

	g := engine.NewGame(opts)
	if err := db.SaveSnapshot(ctx, sessionID, g.Snapshot()); err != nil {
		slog.Error("initial save failed", "error", err)
	}
	return sessionID, g, nil
}
