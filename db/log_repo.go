package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kerem-ae/prospect/domain"
)

var _ domain.LogRepository = (*Repository)(nil)

// dbLog represents a log entry as stored in the database.
type dbLog struct {
	ID        uuid.UUID      `db:"id"`        // Unique identifier for the log entry.
	Timestamp time.Time      `db:"timestamp"` // The time at which the log entry was created.
	Level     string         `db:"level"`     // The severity level of the log.
	Message   string         `db:"message"`   // The main content of the log message.
	Context   Metadata       `db:"context"`   // A map of additional key-value data.
	ReportID  sql.NullString `db:"report_id"` // An optional ID of an associated report.
	HookName  string         `db:"hook_name"` // An optional extension hook name.
}

// toDomainLog converts a dbLog to a domain.Log.
func toDomainLog(dbl *dbLog) *domain.Log {
	log := &domain.Log{
		ID:        dbl.ID,
		Timestamp: dbl.Timestamp,
		Level:     dbl.Level,
		Message:   dbl.Message,
		Context:   map[string]any(dbl.Context),
		HookName:  dbl.HookName,
	}

	if dbl.ReportID.Valid {
		if id, err := uuid.Parse(dbl.ReportID.String); err == nil {
			log.ReportID = &id
		}
	}
	return log
}

// fromDomainLog converts a domain.Log to a dbLog.
func fromDomainLog(log *domain.Log) *dbLog {
	dbl := &dbLog{
		ID:        log.ID,
		Timestamp: log.Timestamp,
		Level:     log.Level,
		Message:   log.Message,
		Context:   Metadata(log.Context),
		HookName:  log.HookName,
	}

	if log.ReportID != nil {
		dbl.ReportID = sql.NullString{String: log.ReportID.String(), Valid: true}
	}
	return dbl
}

// InsertLog saves a new log entry to the database.
func (repo *Repository) InsertLog(log *domain.Log) error {
	dbl := fromDomainLog(log)
	query := `INSERT INTO logs (id, timestamp, level, message, context, report_id, hook_name)
	          VALUES (:id, :timestamp, :level, :message, :context, :report_id, :hook_name)`

	_, err := repo.dbConn.NamedExec(query, dbl)
	if err != nil {
		return fmt.Errorf("inserting log %s: %w", log.ID, err)
	}
	return nil
}

// GetLogs retrieves all log entries from the database.
func (repo *Repository) GetLogs() ([]*domain.Log, error) {
	var dbLogs []*dbLog
	query := `SELECT * FROM logs`

	err := repo.dbConn.Select(&dbLogs, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all logs: %w", err)
	}

	domainLogs := make([]*domain.Log, len(dbLogs))
	for i, dbl := range dbLogs {
		domainLogs[i] = toDomainLog(dbl)
	}
	return domainLogs, nil
}
