// Package server exposes the zone registry over HTTP for local frontends.
//
// Two surfaces share one listener:
//
//  1. A JSON API under /api/ mirroring the registry's command surface:
//     zone listing, volume, mute, playback, presets, saved groups and
//     network refresh.
//  2. A WebSocket endpoint at /ws that pushes the full zone snapshot
//     whenever it changes, so frontends render from push instead of
//     polling the API.
//
// The server binds to loopback by default; it is a local bridge, not an
// internet-facing service, and carries no authentication.
package server
