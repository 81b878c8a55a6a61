// Package config stores application settings and persisted user state in a
// yaml file under the OS-appropriate configuration directory.
//
// The file holds three things:
//
//   - Settings: discovery filters (allow/deny lists, name correction),
//     category rules, linked-group keywords, timing intervals and the
//     forced-family policy
//   - Zone preferences: user-set names, favorites, sort order, keyed by
//     device display name so they survive re-discovery
//   - Saved groups: named multi-room groups with a designated master
//
// Preferences and groups are written through immediately on every mutating
// call (last-write-wins, no transaction); failures are logged, not
// escalated. The registry treats this package as its persistence
// collaborator.
package config
