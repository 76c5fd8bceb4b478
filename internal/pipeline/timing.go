package pipeline

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// TimingEnv names the environment variable that enables stage timing.
const TimingEnv = "HDLGEN_TIMING_JSONL"

type timingEvent struct {
	Stage      string  `json:"stage"`
	Kind       string  `json:"kind"`
	Design     string  `json:"design,omitempty"`
	Status     string  `json:"status,omitempty"`
	StartMS    float64 `json:"start_ms"`
	DurationMS float64 `json:"duration_ms"`
	EndMS      float64 `json:"end_ms"`
}

type timingRecorder struct {
	enabled bool
	start   time.Time
	mu      sync.Mutex
	file    *os.File
	enc     *json.Encoder
	err     error
}

func newTimingRecorder(start time.Time, path string) *timingRecorder {
	tr := &timingRecorder{start: start}
	if path == "" {
		return tr
	}
	f, err := os.Create(path)
	if err != nil {
		tr.err = err
		return tr
	}
	tr.enabled = true
	tr.file = f
	tr.enc = json.NewEncoder(f)
	return tr
}

func (tr *timingRecorder) Err() error {
	if tr == nil {
		return nil
	}
	return tr.err
}

func (tr *timingRecorder) Close() {
	if tr == nil || tr.file == nil {
		return
	}
	_ = tr.file.Close()
}

func (tr *timingRecorder) record(stage, kind, design, status string, start time.Time, duration time.Duration) {
	if tr == nil || !tr.enabled {
		return
	}
	startMS := durationToMS(start.Sub(tr.start))
	durationMS := durationToMS(duration)
	event := timingEvent{
		Stage:      stage,
		Kind:       kind,
		Design:     design,
		Status:     status,
		StartMS:    startMS,
		DurationMS: durationMS,
		EndMS:      startMS + durationMS,
	}
	tr.mu.Lock()
	_ = tr.enc.Encode(event)
	tr.mu.Unlock()
}

// Stage records one stage of one design.
func (tr *timingRecorder) Stage(stage, design, status string, start time.Time) {
	tr.record(stage, "stage", design, status, start, time.Since(start))
}

// Total records the whole run.
func (tr *timingRecorder) Total(status string) {
	if tr == nil {
		return
	}
	tr.record("total", "run", "", status, tr.start, time.Since(tr.start))
}

func durationToMS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000_000.0
}

// timingPath returns where stage timings go: the environment wins over the
// configured path. Empty disables timing.
func timingPath(configured string) string {
	if env := os.Getenv(TimingEnv); env != "" {
		return env
	}
	return configured
}
