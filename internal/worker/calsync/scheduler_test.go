package calsync

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestScheduler_Add_InvalidSpec(t *testing.T) {
	s := NewScheduler(time.UTC, time.Minute, nil)
	err := s.Add("calendar-sync", "every monday", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("Add() expected error for invalid schedule")
	}
}

func TestScheduler_Add_DefaultSchedule(t *testing.T) {
	s := NewScheduler(time.UTC, time.Minute, nil)
	if err := s.Add("calendar-sync", "0 4 * * 1", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	entries := s.cron.Entries()
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}

	from := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) // 水曜日
	next := entries[0].Schedule.Next(from)
	if want := time.Date(2026, 3, 9, 4, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("next run = %v, want %v", next, want)
	}
}

func TestScheduler_RunsJobsAndStops(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewJSONHandler(&syncWriter{w: &buf, mu: &mu}, nil))

	s := NewScheduler(time.UTC, 5*time.Second, logger)
	ran := make(chan struct{}, 10)
	if err := s.Add("tick", "@every 1s", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("job context should carry the timeout")
		}
		ran <- struct{}{}
		return errors.New("boom")
	}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run within 3s")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(buf.String(), `"msg":"job failed"`) {
		t.Errorf("expected job failure to be logged, got %s", buf.String())
	}
}

type syncWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
