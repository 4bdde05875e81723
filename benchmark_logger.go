package matbench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RunRecord captures a single benchmark run for the session log
type RunRecord struct {
	Status         string    `json:"status"` // "pass" or "fail"
	Size           int       `json:"size"`
	Operation      string    `json:"operation"`
	BlockSize      int       `json:"block_size,omitempty"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	L1DataMisses   *uint64   `json:"l1_dcm,omitempty"`
	L2DataMisses   *uint64   `json:"l2_dcm,omitempty"`
	CacheCondition string    `json:"cache_condition"` // "hot" or "cold"
	Error          string    `json:"error,omitempty"`
	Host           HostInfo  `json:"host"`
	Timestamp      time.Time `json:"timestamp"`
}

// SessionLog appends run records to a JSON file, rewriting it after every
// record so a crash loses nothing already reported.
type SessionLog struct {
	mu      sync.Mutex
	path    string
	records []RunRecord
}

// NewSessionLog creates dir if needed and starts a session file named
// after sessionName and the current time.
func NewSessionLog(dir, sessionName string) (*SessionLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	sl := &SessionLog{
		path: filepath.Join(dir, fmt.Sprintf("%s_%s.json", sessionName, timestamp)),
	}
	if err := sl.flush(); err != nil {
		return nil, err
	}
	return sl, nil
}

// Path returns the session file path
func (sl *SessionLog) Path() string {
	return sl.path
}

// Append records a run and flushes the file
func (sl *SessionLog) Append(rec RunRecord) error {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	sl.records = append(sl.records, rec)
	return sl.flush()
}

// Records returns a copy of the records logged so far
func (sl *SessionLog) Records() []RunRecord {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return append([]RunRecord(nil), sl.records...)
}

func (sl *SessionLog) flush() error {
	data, err := json.MarshalIndent(sl.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return os.WriteFile(sl.path, data, 0644)
}

// ReadSessionLog loads a session file written by SessionLog
func ReadSessionLog(path string) ([]RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []RunRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// NewRunRecord builds a record from a result or a failure
func NewRunRecord(cfg Config, res *Result, runErr error, host HostInfo) RunRecord {
	rec := RunRecord{
		Status:         "pass",
		Size:           cfg.Size,
		Operation:      cfg.Operation.String(),
		CacheCondition: CacheCondition(cfg.ColdCache),
		Host:           host,
	}
	if cfg.Operation == OpBlock {
		rec.BlockSize = cfg.BlockSize
	}
	if runErr != nil {
		rec.Status = "fail"
		rec.Error = runErr.Error()
		return rec
	}
	rec.ElapsedSeconds = res.Elapsed.Seconds()
	if res.Counters != nil {
		l1, l2 := res.Counters.L1DataMisses, res.Counters.L2DataMisses
		rec.L1DataMisses, rec.L2DataMisses = &l1, &l2
	}
	return rec
}
