package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prize-lottery/internal/config"
	"github.com/prize-lottery/internal/models"

	gormlogger "gorm.io/gorm/logger"
)

type stubService struct {
	name    string
	stopped bool
}

func (s *stubService) Name() string { return s.name }

func (s *stubService) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) Stop(ctx context.Context) error {
	s.stopped = true
	return nil
}

func appTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dsn := fmt.Sprintf("file:app_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := models.OpenDB("sqlite", dsn, gormlogger.Silent)
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: "0", Mode: "debug"},
		Admin:    config.AdminConfig{Secret: "app-secret"},
		Campaign: config.CampaignConfig{TicketExpiresAt: "2026-04-30T14:59:59Z"},
		Draw: config.DrawConfig{
			Weights: map[string]string{"ss": "0.001", "s": "0.015", "a": "0.12", "b": "0.864"},
		},
	}
}

func TestBuildRunnerModes(t *testing.T) {
	cfg := appTestConfig(t)

	runner, err := BuildRunner(cfg, ModeAll)
	if err != nil {
		t.Fatalf("all mode without worker tasks should still build: %v", err)
	}
	if len(runner.services) != 1 || runner.services[0].Name() != "http" {
		t.Fatalf("all mode should only run http when worker has nothing to do")
	}

	if _, err := BuildRunner(cfg, ModeWorker); err == nil {
		t.Fatalf("worker mode with nothing to run should fail")
	}

	cfg.Reconcile = config.ReconcileConfig{Enabled: true, IntervalMinutes: 5}
	runner, err = BuildRunner(cfg, ModeAll)
	if err != nil {
		t.Fatalf("build runner failed: %v", err)
	}
	if len(runner.services) != 2 {
		t.Fatalf("all mode should run http and worker, got %d", len(runner.services))
	}

	if _, err := BuildRunner(cfg, "cron"); err == nil {
		t.Fatalf("unknown mode should be rejected")
	}
}

func TestRunnerStopsServicesOnCancel(t *testing.T) {
	svc := &stubService{name: "stub"}
	runner := NewRunner(svc)
	closed := false
	runner.AddCloser("container", func() error {
		closed = true
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, time.Second, nil)
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("runner should exit cleanly, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop")
	}
	if !svc.stopped {
		t.Fatalf("service stop should be called")
	}
	if !closed {
		t.Fatalf("closer should run after services stop")
	}
}

type failingService struct {
	err error
}

func (s *failingService) Name() string                { return "worker" }
func (s *failingService) Start(context.Context) error { return s.err }
func (s *failingService) Stop(context.Context) error  { return nil }

func TestRunnerReportsExitedServiceAndReleasesInReverse(t *testing.T) {
	errBroken := errors.New("redis unreachable")
	api := &stubService{name: "http"}
	runner := NewRunner(api, &failingService{err: errBroken})

	var order []string
	runner.AddCloser("cache", func() error {
		order = append(order, "cache")
		return nil
	})
	runner.AddCloser("container", func() error {
		order = append(order, "container")
		return errors.New("close failed")
	})

	err := runner.Run(context.Background(), time.Second, nil)
	if !errors.Is(err, errBroken) {
		t.Fatalf("want wrapped service error got %v", err)
	}
	if err.Error() != "service worker: redis unreachable" {
		t.Fatalf("error should name the service, got %q", err.Error())
	}
	if !api.stopped {
		t.Fatalf("remaining services should be stopped")
	}
	if len(order) != 2 || order[0] != "container" || order[1] != "cache" {
		t.Fatalf("closers should run in reverse order even after a failure, got %v", order)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]string{"": ModeAll, " API ": ModeAPI, "worker": ModeWorker, "all": ModeAll}
	for raw, want := range cases {
		got, err := ParseMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) want %s got %s err=%v", raw, want, got, err)
		}
	}
	if _, err := ParseMode("cron"); err == nil {
		t.Fatalf("unknown mode should be rejected")
	}
	if workerOptional(ModeWorker) || !workerOptional(ModeAll) {
		t.Fatalf("only all mode may skip the worker")
	}
}

func TestNewHTTPServiceTimeouts(t *testing.T) {
	svc := NewHTTPService(config.ServerConfig{Host: "127.0.0.1", Port: "8080"}, nil)
	if svc.Addr() != "127.0.0.1:8080" {
		t.Fatalf("unexpected addr %s", svc.Addr())
	}
	if svc.server.ReadHeaderTimeout != defaultReadHeaderTimeout || svc.server.IdleTimeout != defaultIdleTimeout {
		t.Fatalf("defaults expected, got %+v", svc.server)
	}

	svc = NewHTTPService(config.ServerConfig{Port: "8080", WriteTimeoutSeconds: 3}, nil)
	if svc.server.WriteTimeout != 3*time.Second {
		t.Fatalf("write timeout want 3s got %s", svc.server.WriteTimeout)
	}
	if svc.Addr() != ":8080" {
		t.Fatalf("empty host should listen on all interfaces, got %s", svc.Addr())
	}
}
