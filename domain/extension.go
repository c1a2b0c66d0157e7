package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExtensionRepository defines the interface for managing Lua extensions.
type ExtensionRepository interface {
	// CreateExtension stores a new extension script.
	CreateExtension(name, author, description, luaCode string) error

	// GetExtensions retrieves all stored extensions.
	GetExtensions() ([]*Extension, error)

	// GetExtension retrieves a single extension by name.
	// Returns ErrNotFound when no extension matches.
	GetExtension(name string) (*Extension, error)

	// SetExtensionEnabled toggles whether an extension is loaded at startup.
	SetExtensionEnabled(name string, enabled bool) error

	// RemoveExtension deletes an extension by name.
	RemoveExtension(name string) error

	// GetExtensionSettings retrieves the persisted settings map of an extension.
	GetExtensionSettings(id uuid.UUID) (map[string]any, error)

	// SetExtensionSettings replaces the persisted settings map of an extension.
	SetExtensionSettings(id uuid.UUID, settings map[string]any) error
}

// Extension is a user-supplied Lua script hooked into the search and scrape
// pipelines.
type Extension struct {
	ID          uuid.UUID // Unique identifier for the extension.
	Name        string    // Unique human-readable name.
	Author      string    // Script author.
	Description string    // What the extension does.
	LuaCode     string    // The Lua source.
	Enabled     bool      // Whether the extension is loaded at startup.
	AddedAt     time.Time // When the extension was installed.
}
