package fleet

import "time"

// LogCapacity is the number of entries the operator log retains.
const LogCapacity = 50

type LogSeverity string

const (
	SeverityInfo  LogSeverity = "info"
	SeverityWarn  LogSeverity = "warn"
	SeverityError LogSeverity = "error"
)

// LogEntry is one record in the operator-facing event log.
type LogEntry struct {
	Message   string      `json:"message"`
	Severity  LogSeverity `json:"severity"`
	VehicleID string      `json:"vehicle_id,omitempty"`
	Time      time.Time   `json:"time"`
}

// logBuffer keeps the newest LogCapacity entries, newest first. Older
// entries are silently dropped. Not safe for concurrent use; the Store
// serializes access.
type logBuffer struct {
	entries []LogEntry
}

func (b *logBuffer) append(e LogEntry) {
	b.entries = append(b.entries, LogEntry{})
	copy(b.entries[1:], b.entries)
	b.entries[0] = e
	if len(b.entries) > LogCapacity {
		b.entries = b.entries[:LogCapacity]
	}
}

// list returns a copy, newest first.
func (b *logBuffer) list() []LogEntry {
	out := make([]LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}
