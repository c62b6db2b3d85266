package logger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CSVLogger writes an audit trail of processed drafts with periodic buffering.
type CSVLogger struct {
	writer     *csv.Writer
	file       *os.File
	toolName   string
	action     string
	rowCount   int
	lastFlush  time.Time
	flushEvery int
}

// NewCSVLogger creates a CSV audit logger for the given tool and action.
// Filename pattern: %TEMP%/_{toolName}_{action}_{date}.csv
//
// Example: _draftsync_createdrafts_2026-08-29.csv
func NewCSVLogger(toolName, action string) (*CSVLogger, error) {
	tempDir := os.TempDir()

	dateStr := time.Now().Format("2006-01-02")
	fileName := fmt.Sprintf("_%s_%s_%s.csv", toolName, action, dateStr)
	filePath := filepath.Join(tempDir, fileName)

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not create CSV log file: %w", err)
	}

	logger := &CSVLogger{
		writer:     csv.NewWriter(file),
		file:       file,
		toolName:   toolName,
		action:     action,
		lastFlush:  time.Now(),
		flushEvery: 10,
	}

	fmt.Printf("Logging to: %s\n\n", filePath)
	return logger, nil
}

// WriteHeader writes the column header with a Timestamp column prepended.
// Call once after creating the logger if the file is new.
func (l *CSVLogger) WriteHeader(columns []string) error {
	header := append([]string{"Timestamp"}, columns...)
	if err := l.writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	l.writer.Flush()
	return l.writer.Error()
}

// WriteRow writes a row with the current timestamp prepended.
// Rows are flushed every N rows or every 5 seconds.
func (l *CSVLogger) WriteRow(row []string) error {
	if l.writer == nil {
		return fmt.Errorf("CSV writer is not initialized")
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fullRow := append([]string{timestamp}, row...)

	if err := l.writer.Write(fullRow); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}

	l.rowCount++

	if l.rowCount%l.flushEvery == 0 || time.Since(l.lastFlush) > 5*time.Second {
		l.writer.Flush()
		l.lastFlush = time.Now()
		if err := l.writer.Error(); err != nil {
			return fmt.Errorf("failed to flush CSV: %w", err)
		}
	}

	return nil
}

// ShouldWriteHeader reports whether the file is new (empty) and needs a header.
func (l *CSVLogger) ShouldWriteHeader() (bool, error) {
	fileInfo, err := l.file.Stat()
	if err != nil {
		return false, fmt.Errorf("could not stat CSV file: %w", err)
	}
	return fileInfo.Size() == 0, nil
}

// Close flushes buffered rows and closes the file.
func (l *CSVLogger) Close() error {
	if l.writer != nil {
		l.writer.Flush()
		if err := l.writer.Error(); err != nil {
			return fmt.Errorf("error flushing CSV on close: %w", err)
		}
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
