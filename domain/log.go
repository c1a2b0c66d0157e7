package domain

import (
	"time"

	"github.com/google/uuid"
)

// LogRepository defines the interface for managing application logs.
type LogRepository interface {
	// InsertLog saves a new log entry to the repository.
	InsertLog(log *Log) error
	// GetLogs retrieves all log entries from the repository.
	GetLogs() ([]*Log, error)
}

// Log represents a single log entry, containing information about an event
// that occurred in the application.
type Log struct {
	ID        uuid.UUID      // Unique identifier for the log entry.
	Timestamp time.Time      // The time at which the log entry was created.
	Level     string         // The severity level (DEBUG, INFO, WARN, ERROR, FATAL).
	Message   string         // The main content of the log message.
	Context   map[string]any // Additional key-value data for structured logging.
	ReportID  *uuid.UUID     // An optional ID of an associated match report.
	HookName  string         // An optional name of the extension hook that produced the entry.
}

// GetType identifies the item on the async store channel.
func (log Log) GetType() string {
	return "log"
}

// LogWithContext attaches structured context data to a log entry.
func LogWithContext(context map[string]any) func(log *Log) error {
	return func(log *Log) error {
		log.Context = context
		return nil
	}
}

// LogWithReport associates a log entry with a match report.
func LogWithReport(id uuid.UUID) func(log *Log) error {
	return func(log *Log) error {
		log.ReportID = &id
		return nil
	}
}

// LogWithHook records the extension hook that produced a log entry.
func LogWithHook(name string) func(log *Log) error {
	return func(log *Log) error {
		log.HookName = name
		return nil
	}
}
