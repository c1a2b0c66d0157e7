// Package db provides the database layer for the prospect application.
// It encapsulates all interactions with the underlying SQLite database,
// managing persistence for company profiles, search history, match reports,
// logs, extensions, and application settings.
//
// This package is responsible for:
//   - Establishing and managing database connections (`db.go`).
//   - Defining database-specific data structures that map to SQL table schemas.
//   - Implementing the repository interfaces defined in the `domain` package.
//   - Handling data conversion between domain structs and database-friendly
//     structs, including the use of `sql.Null*` types for nullable fields.
//   - Managing database migrations (`migrations/`).
//   - Providing common database utility types (`types.go`).
package db
