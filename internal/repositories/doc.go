// Package repositories provides the persistence layer over the SQLite
// document collections.
//
// Each repository wraps a *sql.DB and exposes the narrow capability set the
// rest of the service consumes: keyed lookups, inserts, and partial updates.
// Uniqueness of (owner, remote id) on playlists and of the Spotify user id
// on identities is enforced at the storage layer.
package repositories
