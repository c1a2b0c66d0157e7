// Package extensions provides the Lua-based extension system for prospect.
// It includes the runtime for executing extension scripts and defines the Go
// functions and types that are exposed to the Lua environment, allowing
// extensions to filter search results and patch scraped company profiles.
package extensions
