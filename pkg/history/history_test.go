package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSource_String(t *testing.T) {
	tests := []struct {
		source   Source
		expected string
	}{
		{SourceSerial, "serial"},
		{SourceLocal, "local"},
		{Source(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.source.String(); result != tt.expected {
				t.Errorf("Source.String() = %s, want %s", result, tt.expected)
			}
		})
	}
}

func TestParseFileFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    FileFormat
		wantErr bool
	}{
		{"plain", FormatPlainText, false},
		{"TEXT", FormatPlainText, false},
		{"timestamped", FormatTimestamped, false},
		{"json", FormatJSON, false},
		{"xml", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFileFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFileFormat(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseFileFormat(%s) = %v, want %v", tt.input, got, tt.want)
			}
			if !tt.wantErr && got.String() == "unknown" {
				t.Errorf("format %v has no name", got)
			}
		})
	}
}

func TestMemoryHistoryManager_Basic(t *testing.T) {
	manager := NewMemoryHistoryManager(1024)

	testData := []byte("Hello, Memory!")
	if err := manager.Write(testData, SourceSerial); err != nil {
		t.Errorf("Write() failed: %v", err)
	}

	if manager.GetSize() != len(testData) {
		t.Errorf("GetSize() = %d, want %d", manager.GetSize(), len(testData))
	}

	if manager.GetEntryCount() != 1 {
		t.Errorf("GetEntryCount() = %d, want 1", manager.GetEntryCount())
	}

	entry := manager.entries[0]
	if entry.Data != string(testData) || entry.Source != SourceSerial {
		t.Errorf("entry = %+v, want serial %q", entry, testData)
	}
}

func TestMemoryHistoryManager_WriteInvalid(t *testing.T) {
	manager := NewMemoryHistoryManager(1024)

	if err := manager.Write(nil, SourceSerial); err == nil {
		t.Error("Write() with nil data should return error")
	}

	if err := manager.Write([]byte("x"), Source(7)); err == nil {
		t.Error("Write() with invalid source should return error")
	}

	if err := manager.Write([]byte{}, SourceSerial); err != nil {
		t.Errorf("Write() with empty data should be a no-op: %v", err)
	}
	if manager.GetEntryCount() != 0 {
		t.Error("empty writes should not add entries")
	}
}

func TestMemoryHistoryManager_Text(t *testing.T) {
	manager := NewMemoryHistoryManager(1024)

	manager.Write([]byte("Select a port\n"), SourceLocal)
	manager.Write([]byte("up\r\n"), SourceSerial)
	manager.Write([]byte("down\r\n"), SourceSerial)

	if got, want := manager.Text(), "Select a port\nup\r\ndown\r\n"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestMemoryHistoryManager_DropsOldest(t *testing.T) {
	manager := NewMemoryHistoryManager(10)

	manager.Write([]byte("aaaa"), SourceSerial)
	manager.Write([]byte("bbbb"), SourceSerial)
	manager.Write([]byte("cccc"), SourceSerial)

	if manager.GetSize() > 10 {
		t.Errorf("GetSize() = %d, exceeds max 10", manager.GetSize())
	}
	if got := manager.Text(); got != "bbbbcccc" {
		t.Errorf("Text() = %q, want %q", got, "bbbbcccc")
	}
}

func TestMemoryHistoryManager_OversizedChunkKeepsTail(t *testing.T) {
	manager := NewMemoryHistoryManager(4)

	manager.Write([]byte("old"), SourceSerial)
	manager.Write([]byte("0123456789"), SourceSerial)

	if got := manager.Text(); got != "6789" {
		t.Errorf("Text() = %q, want %q", got, "6789")
	}
	if manager.GetEntryCount() != 1 {
		t.Errorf("GetEntryCount() = %d, want 1", manager.GetEntryCount())
	}
}

func TestMemoryHistoryManager_OversizedChunkCutsOnRuneStart(t *testing.T) {
	manager := NewMemoryHistoryManager(5)

	// "é" is two bytes; the last five bytes start inside one
	manager.Write([]byte("ééé"), SourceSerial)

	got := manager.Text()
	if !utf8.ValidString(got) {
		t.Fatalf("Text() = %q, want valid UTF-8", got)
	}
	if got != "éé" {
		t.Errorf("Text() = %q, want %q", got, "éé")
	}
	if manager.GetSize() != len("éé") {
		t.Errorf("GetSize() = %d, want %d", manager.GetSize(), len("éé"))
	}
}

func TestMemoryHistoryManager_Clear(t *testing.T) {
	manager := NewMemoryHistoryManager(1024)

	manager.Write([]byte("Test data"), SourceSerial)

	if err := manager.Clear(); err != nil {
		t.Errorf("Clear() failed: %v", err)
	}

	if manager.GetSize() != 0 {
		t.Errorf("GetSize() after Clear() = %d, want 0", manager.GetSize())
	}

	if manager.GetEntryCount() != 0 {
		t.Errorf("GetEntryCount() after Clear() = %d, want 0", manager.GetEntryCount())
	}

	if manager.Text() != "" {
		t.Error("Text() after Clear() should be empty")
	}
}

func TestNewMemoryHistoryManager_DefaultSize(t *testing.T) {
	manager := NewMemoryHistoryManager(0)

	if manager.maxSize != 1024*1024 {
		t.Errorf("maxSize = %d, want %d", manager.maxSize, 1024*1024)
	}
}

func TestMemoryHistoryManager_SaveToFile(t *testing.T) {
	manager := NewMemoryHistoryManager(1024)

	manager.Write([]byte("First message\n"), SourceLocal)
	manager.Write([]byte("up\r\n"), SourceSerial)

	tempDir := t.TempDir()

	plainFile := filepath.Join(tempDir, "plain.txt")
	if err := manager.SaveToFile(plainFile, FormatPlainText); err != nil {
		t.Fatalf("SaveToFile(PlainText) failed: %v", err)
	}
	plain, _ := os.ReadFile(plainFile)
	if string(plain) != "First message\nup\r\n" {
		t.Errorf("plain export = %q", string(plain))
	}

	timestampFile := filepath.Join(tempDir, "timestamp.txt")
	if err := manager.SaveToFile(timestampFile, FormatTimestamped); err != nil {
		t.Fatalf("SaveToFile(Timestamped) failed: %v", err)
	}
	stamped, _ := os.ReadFile(timestampFile)
	lines := strings.Split(strings.TrimRight(string(stamped), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("timestamped export has %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "-- First message\\n") {
		t.Errorf("unexpected local line: %s", lines[0])
	}
	if !strings.Contains(lines[1], ">> up\\r\\n") {
		t.Errorf("unexpected serial line: %s", lines[1])
	}

	jsonFile := filepath.Join(tempDir, "data.json")
	if err := manager.SaveToFile(jsonFile, FormatJSON); err != nil {
		t.Fatalf("SaveToFile(JSON) failed: %v", err)
	}
	raw, _ := os.ReadFile(jsonFile)
	var decoded struct {
		Entries []struct {
			Source string `json:"source"`
			Data   string `json:"data"`
		} `json:"entries"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("JSON export is not valid JSON: %v", err)
	}
	if decoded.Count != 2 || decoded.Entries[1].Source != "serial" || decoded.Entries[1].Data != "up\r\n" {
		t.Errorf("unexpected JSON export: %+v", decoded)
	}
}

func TestMemoryHistoryManager_SaveToFileEmptyFilename(t *testing.T) {
	manager := NewMemoryHistoryManager(1024)

	if err := manager.SaveToFile("", FormatPlainText); err == nil {
		t.Error("SaveToFile() with empty filename should return error")
	}
}

func TestSaveEntriesToFile_UnsupportedFormat(t *testing.T) {
	entries := []HistoryEntry{
		NewHistoryEntry([]byte("test"), SourceSerial),
	}

	filename := filepath.Join(t.TempDir(), "test.txt")

	if err := saveEntriesToFile(entries, filename, FileFormat(999)); err == nil {
		t.Error("saveEntriesToFile() with unsupported format should return error")
	}
}
