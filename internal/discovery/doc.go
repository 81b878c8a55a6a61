// Package discovery provides mDNS-based discovery of audio zone devices.
//
// A Browser runs one zeroconf browse session per registered service type
// (one for the Linkplay namespace, one for BluOS) and emits a stream of
// found/lost/error events on a channel. The event stream is the only
// channel to consumers; no shared mutable state is exposed.
//
// # Discovery Process
//
//  1. One resolver per service binding browses "local." continuously
//  2. Advertisements are resolved to a reachable address, preferring IPv4
//  3. Candidates without a usable address are silently dropped
//  4. Goodbye packets (TTL 0) emit lost-events keyed by instance name
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// Browse failures are emitted as error events rather than terminating the
// session; the consumer decides what is transient and what is fatal.
package discovery
