package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/tabletop-agents/internal/storage"
)

func main() {
	sessionID := flag.String("session", "", "session id to watch (defaults to the most recent)")
	redisURL := flag.String("redis", "", "redis address (overrides REDIS_URL)")
	flag.Parse()

	addr := "localhost:6379"
	if env := os.Getenv("REDIS_URL"); env != "" {
		addr = env
	}
	if *redisURL != "" {
		addr = *redisURL
	}

	store := storage.NewRedisStorage(addr, nil)
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		stdlog.Fatalf("cannot reach redis at %s: %v", addr, err)
	}

	id := *sessionID
	if id == "" {
		ids, err := store.ListSessions(ctx)
		if err != nil || len(ids) == 0 {
			stdlog.Fatal("no sessions found; run a session first or pass -session")
		}
		// Session ids embed their start time, so the lexicographic max is
		// the newest.
		sort.Strings(ids)
		id = ids[len(ids)-1]
	}

	ui := NewConsoleUI(store, id)
	p := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "console error: %v\n", err)
		os.Exit(1)
	}
}
