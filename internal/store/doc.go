// Package store provides the SQLite session journal for inklive.
//
// The journal is an append-only log of what crossed the live compiler's
// boundaries:
//   - sessions: one row per compile request (play, export, stats)
//   - entries: outbound supervisor messages, inbound supervisor events,
//     and sink notifications, in the order they happened
//
// # Ordering
//
// All ordering uses seq INTEGER, a logical counter owned by the Store and
// resumed from MAX(seq) on Open. Queries always ORDER BY seq ASC, so a
// trace reads back exactly as it was written regardless of wall time.
//
// # Decorators
//
// Supervisor, Tap, and Sink wrap the live compiler's collaborators so a run
// is journaled without the live package knowing about storage. Journal
// write failures are logged and never interrupt the session.
//
// # Database Configuration
//
//   - WAL mode: trace can read while run writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
package store
