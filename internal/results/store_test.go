package results

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"risksim/internal/distribution"
	"risksim/internal/simulation"
	"risksim/internal/stats"
)

func testRecord(t *testing.T, org, assessment string, createdAt time.Time) Record {
	t.Helper()
	res, err := stats.Summarize([]float64{0, 100, 2500, 40000})
	if err != nil {
		t.Fatal(err)
	}
	p := simulation.Parameters{
		Iterations:            4,
		TimeHorizonYears:      1,
		FrequencyDistribution: distribution.Spec{Kind: distribution.Poisson, Lambda: distribution.Float(1)},
	}
	r := NewRecord(org, assessment, "vendor_outage", p, res, 1500*time.Microsecond)
	r.CreatedAt = createdAt
	return r
}

func TestStore_LatestAndList(t *testing.T) {
	s := NewStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	older := testRecord(t, "org-1", "a-1", base)
	newer := testRecord(t, "org-1", "a-1", base.Add(time.Hour))
	other := testRecord(t, "org-1", "a-2", base.Add(30*time.Minute))

	// Out of order on purpose; the store keeps records chronological.
	for _, r := range []Record{newer, other, older} {
		if err := s.Append(r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := s.Append(newer); err != nil {
		t.Fatalf("re-append failed: %v", err)
	}

	latest, err := s.Latest("org-1", "a-1")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.ID != newer.ID {
		t.Errorf("Latest returned %s, want %s", latest.ID, newer.ID)
	}

	list := s.List("org-1")
	if len(list) != 3 {
		t.Fatalf("List returned %d records, want 3", len(list))
	}
	if list[0].ID != older.ID || list[2].ID != newer.ID {
		t.Errorf("records not chronological")
	}

	if _, err := s.Latest("org-2", "a-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_RejectsIncompleteRecords(t *testing.T) {
	s := NewStore()
	r := testRecord(t, "", "a-1", time.Now())
	if err := s.Append(r); err == nil {
		t.Errorf("expected an error for a record without organization")
	}
	r = testRecord(t, "org", "a-1", time.Now())
	r.Result = nil
	if err := s.Append(r); err == nil {
		t.Errorf("expected an error for a record without result")
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()
	r := testRecord(t, "org-9", "risk-7", time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC))
	if err := s.Append(r); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, CacheFile+".tmp")); !os.IsNotExist(err) {
		t.Errorf("temp file left behind")
	}

	loaded := NewStore()
	if err := loaded.Load(dir); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, err := loaded.Latest("org-9", "risk-7")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if !reflect.DeepEqual(got, r) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, r)
	}
	if got.ExecutionTimeMs != 1 {
		t.Errorf("ExecutionTimeMs = %d, want 1", got.ExecutionTimeMs)
	}
}

func TestStore_LoadSkipsInvalidLines(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()
	r := testRecord(t, "org", "a", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := s.Append(r); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(dir); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(filepath.Join(dir, CacheFile), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{not json\n{\"id\":\"x\"}\n")
	f.Close()

	loaded := NewStore()
	if err := loaded.Load(dir); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if n := len(loaded.List("org")); n != 1 {
		t.Errorf("loaded %d records, want 1", n)
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	if err := NewStore().Load(t.TempDir()); err != nil {
		t.Errorf("missing cache should not be an error: %v", err)
	}
}

func TestStore_NonFiniteRecords(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()
	good := testRecord(t, "org", "good", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if err := s.Append(good); err != nil {
		t.Fatal(err)
	}

	bad := testRecord(t, "org", "bad", time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
	bad.Result.EALAmount = math.Inf(1)
	bad.Result.DataQuality.MaxLoss = math.Inf(1)
	if err := s.Append(bad); err == nil {
		t.Errorf("expected Append to reject a record with infinite figures")
	}

	// A record that slipped in must not block the cache for everyone else.
	s.mu.Lock()
	s.appendLocked(bad)
	s.mu.Unlock()
	if err := s.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := NewStore()
	if err := loaded.Load(dir); err != nil {
		t.Fatal(err)
	}
	recs := loaded.List("org")
	if len(recs) != 1 || recs[0].ID != good.ID {
		t.Errorf("expected only the finite record to be saved, got %d records", len(recs))
	}
}
