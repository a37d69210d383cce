package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "metronome/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("Open(%q): %v", driver, err)
		}
		if st != nil {
			t.Fatalf("Open(%q) returned a store", driver)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileAppendTick(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ticks.jsonl")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	fire := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Timer: "heartbeat", Count: 1, Fire: fire, Late: 3 * time.Millisecond},
		{Timer: "heartbeat", Count: 2, Fire: fire.Add(time.Second)},
	}
	for _, e := range entries {
		if err := st.AppendTick(context.Background(), e); err != nil {
			t.Fatalf("AppendTick: %v", err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var got []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad journal line: %v", err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("journal has %d entries, want 2", len(got))
	}
	if got[0].Timer != "heartbeat" || got[0].Count != 1 || !got[0].Fire.Equal(fire) {
		t.Fatalf("entry 0 = %+v", got[0])
	}
	if got[0].At.IsZero() {
		t.Fatal("At not defaulted on append")
	}
	if got[1].Count != 2 {
		t.Fatalf("entry 1 count = %d, want 2", got[1].Count)
	}
}

func TestFileRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{Driver: "file"}, logx.Nop()); err == nil {
		t.Fatal("expected error for missing path")
	}
}
