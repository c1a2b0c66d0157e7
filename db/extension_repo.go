package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kerem-ae/prospect/domain"
)

var _ domain.ExtensionRepository = (*Repository)(nil)

// dbExtension represents an extension as stored in the database.
type dbExtension struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Author      string    `db:"author"`
	Description string    `db:"description"`
	LuaCode     string    `db:"lua_code"`
	Enabled     bool      `db:"enabled"`
	Settings    Metadata  `db:"settings"`
	AddedAt     time.Time `db:"added_at"`
}

// toDomainExtension converts a dbExtension into a domain.Extension.
func toDomainExtension(dbe *dbExtension) *domain.Extension {
	return &domain.Extension{
		ID:          dbe.ID,
		Name:        dbe.Name,
		Author:      dbe.Author,
		Description: dbe.Description,
		LuaCode:     dbe.LuaCode,
		Enabled:     dbe.Enabled,
		AddedAt:     dbe.AddedAt,
	}
}

// CreateExtension stores a new extension script, disabled by default.
func (repo *Repository) CreateExtension(name, author, description, luaCode string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating extension id : %w", err)
	}

	dbe := &dbExtension{
		ID:          id,
		Name:        name,
		Author:      author,
		Description: description,
		LuaCode:     luaCode,
		Enabled:     false,
		Settings:    make(Metadata),
		AddedAt:     time.Now(),
	}
	query := `INSERT INTO extensions (id, name, author, description, lua_code, enabled, settings, added_at)
	          VALUES (:id, :name, :author, :description, :lua_code, :enabled, :settings, :added_at)`

	_, err = repo.dbConn.NamedExec(query, dbe)
	if err != nil {
		return fmt.Errorf("inserting extension %s : %w", name, err)
	}
	return nil
}

// GetExtensions retrieves all stored extensions.
func (repo *Repository) GetExtensions() ([]*domain.Extension, error) {
	var dbExtensions []*dbExtension
	query := `SELECT * FROM extensions ORDER BY added_at`

	err := repo.dbConn.Select(&dbExtensions, query)
	if err != nil {
		return nil, fmt.Errorf("fetching all extensions : %w", err)
	}

	extensions := make([]*domain.Extension, len(dbExtensions))
	for i, dbe := range dbExtensions {
		extensions[i] = toDomainExtension(dbe)
	}
	return extensions, nil
}

// GetExtension retrieves a single extension by name.
func (repo *Repository) GetExtension(name string) (*domain.Extension, error) {
	var dbe dbExtension
	query := `SELECT * FROM extensions WHERE name = ?`

	err := repo.dbConn.Get(&dbe, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching extension %s : %w", name, err)
	}
	return toDomainExtension(&dbe), nil
}

// SetExtensionEnabled toggles whether an extension is loaded at startup.
func (repo *Repository) SetExtensionEnabled(name string, enabled bool) error {
	query := `UPDATE extensions SET enabled = ? WHERE name = ?`
	result, err := repo.dbConn.Exec(query, enabled, name)
	if err != nil {
		return fmt.Errorf("updating extension %s : %w", name, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RemoveExtension deletes an extension by name.
func (repo *Repository) RemoveExtension(name string) error {
	query := `DELETE FROM extensions WHERE name = ?`
	result, err := repo.dbConn.Exec(query, name)
	if err != nil {
		return fmt.Errorf("removing extension %s : %w", name, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetExtensionSettings retrieves the persisted settings map of an extension.
func (repo *Repository) GetExtensionSettings(id uuid.UUID) (map[string]any, error) {
	var settings Metadata
	query := `SELECT settings FROM extensions WHERE id = ?`

	err := repo.dbConn.Get(&settings, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching settings for extension %s : %w", id, err)
	}
	return map[string]any(settings), nil
}

// SetExtensionSettings replaces the persisted settings map of an extension.
func (repo *Repository) SetExtensionSettings(id uuid.UUID, settings map[string]any) error {
	query := `UPDATE extensions SET settings = ? WHERE id = ?`
	result, err := repo.dbConn.Exec(query, Metadata(settings), id)
	if err != nil {
		return fmt.Errorf("updating settings for extension %s : %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
