package logging_test

import (
	"context"
	"testing"
	"time"

	"pellet-run/server/logging"
	"pellet-run/server/logging/sinks"
)

func newTestRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.MemorySink) {
	t.Helper()
	memory := sinks.NewMemorySink()
	router := logging.NewRouter(cfg, nil, []logging.NamedSink{{Name: "memory", Sink: memory}})
	return router, memory
}

func closeRouter(t *testing.T, router *logging.Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRouterDeliversToSinks(t *testing.T) {
	router, memory := newTestRouter(t, logging.Config{MinimumSeverity: logging.SeverityDebug})

	router.Publish(context.Background(), logging.Event{
		Type:     "match.pellet_collected",
		Tick:     12,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
	})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("delivered = %d events, want 1", len(events))
	}
	if events[0].Tick != 12 {
		t.Fatalf("tick = %d, want 12", events[0].Tick)
	}
	if events[0].Time.IsZero() {
		t.Fatalf("delivery did not stamp a time")
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	router, memory := newTestRouter(t, logging.Config{MinimumSeverity: logging.SeverityWarn})

	router.Publish(context.Background(), logging.Event{Type: "a", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "b", Severity: logging.SeverityWarn})
	closeRouter(t, router)

	events := memory.Events()
	if len(events) != 1 || events[0].Type != "b" {
		t.Fatalf("events = %v, want only the warning", events)
	}
}

func TestRouterIgnoresUntypedAndPostCloseEvents(t *testing.T) {
	router, memory := newTestRouter(t, logging.Config{})

	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityError})
	closeRouter(t, router)
	router.Publish(context.Background(), logging.Event{Type: "late", Severity: logging.SeverityError})

	if got := len(memory.Events()); got != 0 {
		t.Fatalf("delivered = %d events, want 0", got)
	}
}

func TestRouterStatsCountDeliveries(t *testing.T) {
	router, _ := newTestRouter(t, logging.Config{MinimumSeverity: logging.SeverityDebug})

	for i := 0; i < 5; i++ {
		router.Publish(context.Background(), logging.Event{Type: "tick", Severity: logging.SeverityInfo})
	}
	closeRouter(t, router)

	stats := router.Stats()
	if stats.EventsTotal != 5 {
		t.Fatalf("events total = %d, want 5", stats.EventsTotal)
	}
	if stats.DroppedTotal != 0 {
		t.Fatalf("dropped = %d, want 0", stats.DroppedTotal)
	}
}
