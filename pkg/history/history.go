// Package history provides the bounded scrollback behind the serial output panel
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// Source tells where a scrollback entry came from
type Source int

const (
	SourceSerial Source = iota
	SourceLocal
)

// String returns the string representation of Source
func (s Source) String() string {
	switch s {
	case SourceSerial:
		return "serial"
	case SourceLocal:
		return "local"
	default:
		return "unknown"
	}
}

// MarshalText lets JSON exports carry the source name
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FileFormat represents different file export formats
type FileFormat int

const (
	FormatPlainText FileFormat = iota
	FormatTimestamped
	FormatJSON
)

// String returns the string representation of FileFormat
func (f FileFormat) String() string {
	switch f {
	case FormatPlainText:
		return "plain"
	case FormatTimestamped:
		return "timestamped"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFileFormat converts a format name into a FileFormat
func ParseFileFormat(name string) (FileFormat, error) {
	switch strings.ToLower(name) {
	case "plain", "plain_text", "text":
		return FormatPlainText, nil
	case "timestamped":
		return FormatTimestamped, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("unknown history format: %s", name)
	}
}

// HistoryManager interface defines the contract for scrollback operations
type HistoryManager interface {
	Write(data []byte, source Source) error
	Text() string
	GetSize() int
	GetEntryCount() int
	SaveToFile(filename string, format FileFormat) error
	Clear() error
}

// HistoryEntry represents a single chunk of scrollback text
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
	Data      string    `json:"data"`
}

// NewHistoryEntry creates a new history entry with current timestamp
func NewHistoryEntry(data []byte, source Source) HistoryEntry {
	return HistoryEntry{
		Timestamp: time.Now(),
		Source:    source,
		Data:      string(data),
	}
}

// MemoryHistoryManager keeps entries in memory, dropping the oldest once the
// byte budget is exceeded
type MemoryHistoryManager struct {
	entries []HistoryEntry
	size    int
	maxSize int
}

// NewMemoryHistoryManager creates a new memory-based history manager
func NewMemoryHistoryManager(maxSize int) *MemoryHistoryManager {
	if maxSize <= 0 {
		maxSize = 1024 * 1024 // Default 1MB
	}

	return &MemoryHistoryManager{
		entries: make([]HistoryEntry, 0),
		maxSize: maxSize,
	}
}

// Write appends data to the scrollback
func (mhm *MemoryHistoryManager) Write(data []byte, source Source) error {
	if data == nil {
		return fmt.Errorf("data cannot be nil")
	}

	if source != SourceSerial && source != SourceLocal {
		return fmt.Errorf("invalid source: %d", source)
	}

	if len(data) == 0 {
		return nil
	}

	// A single chunk larger than the budget keeps only its tail, starting
	// on a rune boundary
	if over := len(data) - mhm.maxSize; over > 0 {
		for over < len(data) && !utf8.RuneStart(data[over]) {
			over++
		}
		data = data[over:]
	}

	for mhm.size+len(data) > mhm.maxSize && len(mhm.entries) > 0 {
		mhm.size -= len(mhm.entries[0].Data)
		mhm.entries = mhm.entries[1:]
	}

	mhm.entries = append(mhm.entries, NewHistoryEntry(data, source))
	mhm.size += len(data)
	return nil
}

// Text returns all entries concatenated in order
func (mhm *MemoryHistoryManager) Text() string {
	var sb strings.Builder
	sb.Grow(mhm.size)
	for _, entry := range mhm.entries {
		sb.WriteString(entry.Data)
	}
	return sb.String()
}

// GetSize returns the total size of data in memory
func (mhm *MemoryHistoryManager) GetSize() int {
	return mhm.size
}

// GetEntryCount returns the number of entries
func (mhm *MemoryHistoryManager) GetEntryCount() int {
	return len(mhm.entries)
}

// SaveToFile saves the scrollback to a file
func (mhm *MemoryHistoryManager) SaveToFile(filename string, format FileFormat) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	return saveEntriesToFile(mhm.entries, filename, format)
}

// Clear clears all entries
func (mhm *MemoryHistoryManager) Clear() error {
	mhm.entries = mhm.entries[:0]
	mhm.size = 0
	return nil
}

// saveEntriesToFile saves history entries to a file in the specified format
func saveEntriesToFile(entries []HistoryEntry, filename string, format FileFormat) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatPlainText:
		return saveAsPlainText(file, entries)
	case FormatTimestamped:
		return saveAsTimestamped(file, entries)
	case FormatJSON:
		return saveAsJSON(file, entries)
	default:
		return fmt.Errorf("unsupported format: %v", format)
	}
}

// saveAsPlainText saves entries as plain text
func saveAsPlainText(file *os.File, entries []HistoryEntry) error {
	for _, entry := range entries {
		if _, err := file.WriteString(entry.Data); err != nil {
			return fmt.Errorf("failed to write data: %w", err)
		}
	}
	return nil
}

// saveAsTimestamped saves one line per entry with timestamp and source
func saveAsTimestamped(file *os.File, entries []HistoryEntry) error {
	for _, entry := range entries {
		marker := ">>"
		if entry.Source == SourceLocal {
			marker = "--"
		}

		data := strings.ReplaceAll(entry.Data, "\r", "\\r")
		line := fmt.Sprintf("[%s] %s %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05.000"),
			marker,
			strings.ReplaceAll(data, "\n", "\\n"))

		if _, err := file.WriteString(line); err != nil {
			return fmt.Errorf("failed to write timestamped data: %w", err)
		}
	}
	return nil
}

// saveAsJSON saves entries as JSON
func saveAsJSON(file *os.File, entries []HistoryEntry) error {
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	data := struct {
		Entries []HistoryEntry `json:"entries"`
		Count   int            `json:"count"`
	}{
		Entries: entries,
		Count:   len(entries),
	}

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
