// Package tasks implements the reconciliation work between remote playlist
// state and the local mirror collection.
//
// [Mirror.Sync] pulls the caller's remote playlists and reconciles them
// against local records: unknown playlists are inserted locked, drifted ones
// receive a minimal patch of exactly the changed fields, untouched ones are
// left alone and unreported. Playlists that disappear remotely are never
// deleted locally.
//
// [Mirror.Create] is the local-authoritative creation path: a duplicate-name
// pre-check, remote creation, then a local record built from the metadata
// the remote service answered with.
package tasks
