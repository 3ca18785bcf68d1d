package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
	"github.com/andrescamacho/shippingmanager-go/internal/infrastructure/config"
)

// Compile-time interface check
var _ common.Logger = (*Logger)(nil)

var levelRank = map[string]int{
	common.LevelDebug: 0,
	common.LevelInfo:  1,
	common.LevelWarn:  2,
	common.LevelError: 3,
}

// Logger writes leveled lines with metadata to a stdlib log.Logger
type Logger struct {
	out      *log.Logger
	closer   io.Closer
	minLevel int
	json     bool
	clock    shared.Clock
}

// New builds a logger from the logging section of the daemon config
func New(cfg config.LoggingConfig, clock shared.Clock) (*Logger, error) {
	var w io.Writer
	var closer io.Closer

	switch cfg.Output {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	case "file":
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w, closer = f, f
	default:
		return nil, fmt.Errorf("unsupported log output: %s", cfg.Output)
	}

	l := NewWriterLogger(w, cfg.Level, cfg.Format == "json", clock)
	l.closer = closer
	return l, nil
}

// NewWriterLogger writes to w, dropping lines below level
func NewWriterLogger(w io.Writer, level string, jsonLines bool, clock shared.Clock) *Logger {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	rank, ok := levelRank[strings.ToUpper(level)]
	if !ok {
		rank = levelRank[common.LevelInfo]
	}

	return &Logger{
		out:      log.New(w, "", 0),
		minLevel: rank,
		json:     jsonLines,
		clock:    clock,
	}
}

// Log writes one line when level passes the filter
func (l *Logger) Log(level, message string, metadata map[string]interface{}) {
	rank, ok := levelRank[level]
	if !ok {
		rank = levelRank[common.LevelInfo]
	}
	if rank < l.minLevel {
		return
	}

	now := l.clock.Now().UTC().Format(time.RFC3339)
	if l.json {
		l.out.Print(jsonLine(now, level, message, metadata))
		return
	}
	l.out.Printf("[%s] %s: %s%s", now, level, message, textFields(metadata))
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func jsonLine(ts, level, message string, metadata map[string]interface{}) string {
	entry := make(map[string]interface{}, len(metadata)+3)
	for k, v := range metadata {
		entry[k] = v
	}
	entry["time"] = ts
	entry["level"] = level
	entry["msg"] = message

	data, err := json.Marshal(entry)
	if err != nil {
		data, _ = json.Marshal(map[string]string{"time": ts, "level": level, "msg": message})
	}
	return string(data)
}

// textFields renders metadata as sorted key=value pairs, skipping empty values
func textFields(metadata map[string]interface{}) string {
	if len(metadata) == 0 {
		return ""
	}

	keys := make([]string, 0, len(metadata))
	for k, v := range metadata {
		if v == nil || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, metadata[k])
	}
	return b.String()
}
