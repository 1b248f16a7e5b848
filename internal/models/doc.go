// Package models defines the persisted entities of the FriendShip Playlist
// service.
//
//   - [Identity] : the association between a Spotify user and their encrypted
//     token material. At most one record per Spotify user id; created on the
//     first OAuth callback, mutated on every refresh, never deleted here.
//   - [Playlist] : a local mirror of a subset of a remote playlist's fields,
//     unique per (owner, remote id), kept eventually consistent by sync.
//   - [Questionnaire] / [QuestionnaireResponse] : append-only response
//     collection attached to a playlist.
//
// All entities carry a generated UUID primary key plus a per-table sequence
// for stable human-readable ordering, and validate themselves before hitting
// storage.
package models
