package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestLogAppend(t *testing.T) {
	t.Run("writes one JSON line per entry", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "submissions.log")
		log, err := NewLog(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		entry := Entry{
			Timestamp: time.Now().UTC(),
			IP:        "203.0.113.7",
			Email:     "ada@example.com",
			Company:   "Analytical Engines",
			Purpose:   "ai-ml-consulting",
			EmailSent: true,
		}
		if err := log.Append(entry); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := log.Append(entry); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := readLines(t, path)
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(lines))
		}

		var got Entry
		if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		if got.Email != "ada@example.com" || got.Purpose != "ai-ml-consulting" {
			t.Errorf("unexpected entry: %+v", got)
		}
	})

	t.Run("concurrent appends never interleave", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "submissions.log")
		log, err := NewLog(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		const writers = 20
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				log.Append(Entry{
					Timestamp: time.Now().UTC(),
					IP:        "203.0.113.7",
					Email:     "user@example.com",
					Company:   "Example Corp",
					Purpose:   "careers",
				})
			}()
		}
		wg.Wait()

		lines := readLines(t, path)
		if len(lines) != writers {
			t.Fatalf("expected %d lines, got %d", writers, len(lines))
		}
		for i, line := range lines {
			var e Entry
			if err := json.Unmarshal([]byte(line), &e); err != nil {
				t.Errorf("line %d corrupted: %v", i, err)
			}
		}
	})
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	return lines
}
