package util

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestManualClock_AfterFiresOnAdvance(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualClock(start)

	short := c.After(time.Second)
	long := c.After(time.Minute)
	if c.Waiters() != 2 {
		t.Fatalf("Waiters = %d, want 2", c.Waiters())
	}

	c.Advance(30 * time.Second)
	select {
	case at := <-short:
		if !at.Equal(start.Add(30 * time.Second)) {
			t.Errorf("fired at %v", at)
		}
	default:
		t.Fatal("1s waiter did not fire after 30s")
	}
	select {
	case <-long:
		t.Fatal("1m waiter fired early")
	default:
	}

	c.Set(start) // never backwards
	if !c.Now().Equal(start.Add(30 * time.Second)) {
		t.Errorf("Set moved clock backwards to %v", c.Now())
	}

	c.Advance(30 * time.Second)
	select {
	case <-long:
	default:
		t.Fatal("1m waiter did not fire")
	}
	if c.Waiters() != 0 {
		t.Errorf("Waiters = %d after all fired", c.Waiters())
	}
}

func TestManualClock_ZeroDelay(t *testing.T) {
	c := NewManualClock(time.Unix(0, 0))
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) should be ready immediately")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "info", false},
		{"debug", "debug", false},
		{"WARN", "warn", false},
		{"loud", "info", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lvl, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if lvl.String() != tt.want {
				t.Errorf("level = %s, want %s", lvl, tt.want)
			}
		})
	}
}

func TestNewLoggerWithFile_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "trader.log")
	logger, err := NewLoggerWithFile(path, "info")
	if err != nil {
		t.Fatalf("NewLoggerWithFile: %v", err)
	}
	logger.Info("order_filled", zap.String("order_id", "ord_1"))
	logger.Debug("hidden")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (debug filtered): %q", len(lines), raw)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "order_filled" || entry["order_id"] != "ord_1" || entry["ts"] == nil {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewLoggerWithFile_BadLevel(t *testing.T) {
	if _, err := NewLoggerWithFile(filepath.Join(t.TempDir(), "x.log"), "shout"); err == nil {
		t.Error("expected error for unknown level")
	}
}
