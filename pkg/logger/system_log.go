package logger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultSystemLogCapacity = 2000
	defaultLogPage           = 1
	defaultLogPageSize       = 50
	maxLogPageSize           = 500
)

// SystemLogEntry is one captured log line as served by the back-office
// log query. Fields are sanitized at capture time: the store is readable
// over the admin API, so OTP codes and password material must never land
// in it even when the file log runs at debug.
type SystemLogEntry struct {
	ID         int64                  `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	Level      string                 `json:"level"`
	LoggerName string                 `json:"logger_name,omitempty"`
	Message    string                 `json:"message"`
	Caller     string                 `json:"caller,omitempty"`
	Stack      string                 `json:"stack,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// SystemLogStore keeps the most recent log lines in a fixed ring buffer.
// lastID grows monotonically across overwrites so the admin UI can detect
// gaps between polls.
type SystemLogStore struct {
	mu     sync.RWMutex
	buf    []SystemLogEntry
	head   int
	size   int
	lastID int64
}

func NewSystemLogStore(capacity int) *SystemLogStore {
	if capacity <= 0 {
		capacity = defaultSystemLogCapacity
	}

	return &SystemLogStore{buf: make([]SystemLogEntry, capacity)}
}

// WrapZapLogger tees every entry the base logger writes into the store.
func WrapZapLogger(base *zap.Logger, store *SystemLogStore) *zap.Logger {
	if base == nil || store == nil {
		return base
	}

	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &captureCore{Core: core, store: store}
	}))
}

// QueryLogs filters newest-first by level, time range, and keyword, then
// pages the result. Zero times mean an open bound.
func (s *SystemLogStore) QueryLogs(
	level string,
	from, to time.Time,
	keyword string,
	page, pageSize int,
) ([]SystemLogEntry, int64) {
	if s == nil {
		return nil, 0
	}

	page, pageSize = normalizeLogPagination(page, pageSize)
	level = strings.ToLower(strings.TrimSpace(level))
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	filtered := make([]SystemLogEntry, 0, pageSize)
	for _, entry := range s.snapshotNewestFirst() {
		if level != "" && !strings.EqualFold(entry.Level, level) {
			continue
		}
		if !from.IsZero() && entry.Timestamp.Before(from.UTC()) {
			continue
		}
		if !to.IsZero() && entry.Timestamp.After(to.UTC()) {
			continue
		}
		if keyword != "" && !strings.Contains(entrySearchText(entry), keyword) {
			continue
		}
		filtered = append(filtered, entry)
	}

	total := int64(len(filtered))
	start := (page - 1) * pageSize
	if start >= len(filtered) {
		return []SystemLogEntry{}, total
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total
}

func normalizeLogPagination(page, pageSize int) (int, int) {
	if page <= 0 {
		page = defaultLogPage
	}
	if pageSize <= 0 {
		pageSize = defaultLogPageSize
	}
	if pageSize > maxLogPageSize {
		pageSize = maxLogPageSize
	}
	return page, pageSize
}

func entrySearchText(entry SystemLogEntry) string {
	var b strings.Builder
	b.WriteString(entry.Message)
	b.WriteByte('\n')
	b.WriteString(entry.Level)
	b.WriteByte('\n')
	b.WriteString(entry.LoggerName)
	b.WriteByte('\n')
	b.WriteString(entry.Caller)
	if len(entry.Fields) > 0 {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%v", entry.Fields)
	}
	return strings.ToLower(b.String())
}

func (s *SystemLogStore) add(entry zapcore.Entry, fields []zapcore.Field) {
	if s == nil {
		return
	}

	redacted := fieldsToMap(SanitizeFields(fields))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	s.buf[s.head] = SystemLogEntry{
		ID:         s.lastID,
		Timestamp:  entry.Time.UTC(),
		Level:      entry.Level.String(),
		LoggerName: entry.LoggerName,
		Message:    entry.Message,
		Caller:     entry.Caller.TrimmedPath(),
		Stack:      entry.Stack,
		Fields:     redacted,
	}
	s.head = (s.head + 1) % len(s.buf)
	if s.size < len(s.buf) {
		s.size++
	}
}

func fieldsToMap(fields []zapcore.Field) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, field := range fields {
		field.AddTo(enc)
	}
	if len(enc.Fields) == 0 {
		return nil
	}

	result := make(map[string]interface{}, len(enc.Fields))
	for k, v := range enc.Fields {
		result[k] = v
	}
	return result
}

// snapshotNewestFirst copies the live window so filtering runs without
// holding the write path up. Entries are immutable once captured; the
// Fields maps are cloned so callers cannot reach back into the ring.
func (s *SystemLogStore) snapshotNewestFirst() []SystemLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]SystemLogEntry, 0, s.size)
	for i := 0; i < s.size; i++ {
		idx := s.head - 1 - i
		if idx < 0 {
			idx += len(s.buf)
		}
		item := s.buf[idx]
		if len(item.Fields) > 0 {
			fields := make(map[string]interface{}, len(item.Fields))
			for k, v := range item.Fields {
				fields[k] = v
			}
			item.Fields = fields
		}
		result = append(result, item)
	}
	return result
}

type captureCore struct {
	zapcore.Core
	store *SystemLogStore
}

func (c *captureCore) With(fields []zapcore.Field) zapcore.Core {
	return &captureCore{Core: c.Core.With(fields), store: c.store}
}

func (c *captureCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Core.Check(entry, nil) == nil {
		return checked
	}
	return checked.AddCore(entry, c)
}

func (c *captureCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if c.store != nil {
		c.store.add(entry, fields)
	}
	return c.Core.Write(entry, fields)
}
