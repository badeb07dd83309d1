package ledger

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	l, err := Open(filepath.Join(t.TempDir(), "trends.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestMarkAndHasPosted(t *testing.T) {
	l := newTestLedger(t)

	posted, err := l.HasPosted("天気")
	if err != nil {
		t.Fatalf("HasPosted failed: %v", err)
	}
	if posted {
		t.Error("fresh ledger should not know the title")
	}

	if err := l.MarkPosted("天気"); err != nil {
		t.Fatalf("MarkPosted failed: %v", err)
	}

	posted, err = l.HasPosted("天気")
	if err != nil {
		t.Fatalf("HasPosted failed: %v", err)
	}
	if !posted {
		t.Error("title should be recorded after MarkPosted")
	}
}

func TestMarkPosted_Duplicate(t *testing.T) {
	l := newTestLedger(t)

	if err := l.MarkPosted("サッカー"); err != nil {
		t.Fatalf("first MarkPosted failed: %v", err)
	}

	err := l.MarkPosted("サッカー")
	if !errors.Is(err, ErrAlreadyPosted) {
		t.Fatalf("second MarkPosted = %v, want ErrAlreadyPosted", err)
	}

	records, err := l.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("ledger has %d records, want exactly 1", len(records))
	}
}

func TestMarkPosted_ConcurrentSameTitle(t *testing.T) {
	l := newTestLedger(t)

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- l.MarkPosted("同時")
		}()
	}
	wg.Wait()
	close(results)

	var wins, dups int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyPosted):
			dups++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Errorf("%d writers succeeded, want exactly 1", wins)
	}
	if dups != writers-1 {
		t.Errorf("%d writers saw the duplicate, want %d", dups, writers-1)
	}

	records, err := l.Recent(writers)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("ledger has %d records, want exactly 1", len(records))
	}
}

func TestStats(t *testing.T) {
	l := newTestLedger(t)

	for _, title := range []string{"a", "b", "c"} {
		if err := l.MarkPosted(title); err != nil {
			t.Fatalf("MarkPosted(%q) failed: %v", title, err)
		}
	}

	stats, err := l.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats["total_posted"] != 3 {
		t.Errorf("total_posted = %d, want 3", stats["total_posted"])
	}
	if stats["posted_last_24h"] != 3 {
		t.Errorf("posted_last_24h = %d, want 3", stats["posted_last_24h"])
	}
}
