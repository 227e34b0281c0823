package results

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"risksim/internal/simulation"
	"risksim/internal/stats"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("simulation result not found")

// CacheFile is the JSONL file holding every stored record.
const CacheFile = "results.jsonl"

// Record is one persisted simulation run. Records are immutable once stored.
type Record struct {
	ID              string                `json:"id"`
	OrganizationID  string                `json:"organizationId"`
	AssessmentID    string                `json:"assessmentId"`
	Template        string                `json:"template,omitempty"`
	Parameters      simulation.Parameters `json:"parameters"`
	Result          *stats.Result         `json:"result"`
	ExecutionTimeMs int64                 `json:"executionTimeMs"`
	CreatedAt       time.Time             `json:"createdAt"`
}

// NewRecord stamps a result with a fresh ID and creation time.
func NewRecord(org, assessment, template string, p simulation.Parameters, res *stats.Result, elapsed time.Duration) Record {
	return Record{
		ID:              uuid.NewString(),
		OrganizationID:  org,
		AssessmentID:    assessment,
		Template:        template,
		Parameters:      p,
		Result:          res,
		ExecutionTimeMs: elapsed.Milliseconds(),
		CreatedAt:       time.Now().UTC(),
	}
}

// Store provides thread-safe storage of records, partitioned by organization.
type Store struct {
	mu      sync.RWMutex
	records map[string][]Record
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{
		records: make(map[string][]Record),
	}
}

// Append adds a record. Records with an ID already present are ignored.
func (s *Store) Append(r Record) error {
	if r.OrganizationID == "" || r.AssessmentID == "" {
		return fmt.Errorf("record requires organization and assessment IDs")
	}
	if r.Result == nil {
		return fmt.Errorf("record %s has no result", r.ID)
	}
	if !finiteResult(r.Result) {
		return fmt.Errorf("record %s holds non-finite figures", r.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(r)
	return nil
}

func (s *Store) appendLocked(r Record) {
	recs := s.records[r.OrganizationID]
	for _, existing := range recs {
		if existing.ID == r.ID {
			return
		}
	}
	recs = append(recs, r)
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	s.records[r.OrganizationID] = recs
}

// Latest returns the most recent record of an assessment.
func (s *Store) Latest(org, assessment string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.records[org]
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].AssessmentID == assessment {
			return recs[i], nil
		}
	}
	return Record{}, fmt.Errorf("%w: organization %q assessment %q", ErrNotFound, org, assessment)
}

// List returns every record of an organization, oldest first.
func (s *Store) List(org string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records[org]))
	copy(out, s.records[org])
	return out
}

// Load reads records from the JSONL cache in dir. A missing file is not an error.
func (s *Store) Load(dir string) error {
	path := filepath.Join(dir, CacheFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open results cache: %w", err)
	}
	defer file.Close()

	var loaded []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping invalid JSON line in results cache")
			continue
		}
		if r.OrganizationID == "" || r.Result == nil {
			log.Warn().Str("id", r.ID).Msg("Skipping incomplete record in results cache")
			continue
		}
		loaded = append(loaded, r)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading results cache: %w", err)
	}

	s.mu.Lock()
	for _, r := range loaded {
		s.appendLocked(r)
	}
	s.mu.Unlock()

	log.Info().Str("path", path).Int("count", len(loaded)).Msg("Loaded simulation results from cache")
	return nil
}

// Save writes every record to the JSONL cache in dir, replacing it atomically.
func (s *Store) Save(dir string) error {
	s.mu.RLock()
	orgs := make([]string, 0, len(s.records))
	for org := range s.records {
		orgs = append(orgs, org)
	}
	sort.Strings(orgs)
	var all []Record
	for _, org := range orgs {
		all = append(all, s.records[org]...)
	}
	s.mu.RUnlock()

	path := filepath.Join(dir, CacheFile)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp results file: %w", err)
	}

	writer := bufio.NewWriter(file)
	written := 0
	for _, r := range all {
		line, err := json.Marshal(r)
		if err != nil {
			log.Warn().Err(err).Str("id", r.ID).Msg("Skipping record that cannot be encoded")
			continue
		}
		writer.Write(line)
		writer.WriteByte('\n')
		written++
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush results file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close results file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace results cache: %w", err)
	}

	log.Debug().Str("path", path).Int("count", written).Msg("Saved simulation results")
	return nil
}

func finiteResult(res *stats.Result) bool {
	values := []float64{
		res.EALAmount, res.Percentile10, res.Percentile50, res.Percentile90, res.VaR95,
		res.DataQuality.MinLoss, res.DataQuality.MaxLoss, res.DataQuality.TotalProbability,
	}
	for _, p := range res.ProbabilityExceedsThreshold {
		values = append(values, p)
	}
	for _, b := range res.Distribution {
		values = append(values, b.RangeStart, b.RangeEnd, b.Probability)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
