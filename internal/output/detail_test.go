package output

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/torosent/udprtt/internal/bench"
)

func sampleRecords(start time.Time) []bench.Record {
	return []bench.Record{
		{ID: 0, SentAt: start.Add(time.Microsecond), ReceivedAt: start.Add(501 * time.Microsecond)},
		{ID: 1, SentAt: start.Add(2 * time.Microsecond)},
		{ID: 2},
	}
}

func TestWriteDetailCSV(t *testing.T) {
	start := time.Now()
	var buf bytes.Buffer
	if err := WriteDetailCSV(&buf, start, sampleRecords(start)); err != nil {
		t.Fatalf("WriteDetailCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	want := [][]string{
		{"id", "sent_at", "received_at", "rtt_nanos"},
		{"0", "1000", "501000", "500000"},
		{"1", "2000", "", ""},
		{"2", "", "", ""},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(rows), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestWriteDetailFile(t *testing.T) {
	start := time.Now()
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteDetailFile(path, start, sampleRecords(start)); err != nil {
		t.Fatalf("WriteDetailFile failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
}

func TestWriteDetailFileBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.csv")
	if err := WriteDetailFile(path, time.Now(), nil); err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
