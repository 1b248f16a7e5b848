// Package server contains the HTTP surface of the FriendShip Playlist
// service: routing, middleware, and the handlers for auth, playlists,
// questionnaires and Spotify mirroring.
//
// Handlers hold narrow interfaces over the service layer and translate the
// error taxonomy to HTTP at the boundary: validation failures to 400, unknown
// ids to 404, remote non-2xx responses to a passthrough of the upstream
// status with its body attached, and everything else to 500.
package server
