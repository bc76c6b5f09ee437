package telemetrytest

import (
	"sync"
)

type Event struct {
	Level  string
	ID     string
	Params []any
}

// Recorder implements telemetry.API by keeping every report in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
	Counts map[string]int64
}

func (r *Recorder) add(level, id string, params []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Event{Level: level, ID: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add("broken", id, params)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add("warning", id, params)
}

func (r *Recorder) ReportDebug(id string, params ...any) {
	r.add("debug", id, params)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Counts == nil {
		r.Counts = map[string]int64{}
	}
	r.Counts[id] = count
}

// IDs returns the ids reported at the given level in order.
func (r *Recorder) IDs(level string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.Events {
		if e.Level == level {
			out = append(out, e.ID)
		}
	}
	return out
}
