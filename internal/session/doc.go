// Package session defines the domain model for AI coding sessions.
//
// # Overview
//
// A session is one AI-assisted conversation bound to a git worktree. Several
// sessions can run concurrently against the same repository; each worktree
// owns an ordered list of them. This package holds the pure data types and
// their invariants: sessions, chat messages, content blocks, tool calls,
// queued messages, execution modes, and thinking levels. Mutation policy and
// persistence live elsewhere (internal/state, internal/storage).
//
// # Identity
//
// Session ids are UUIDs and globally unique: a session belongs to exactly one
// worktree. Message and queued-message ids are UUIDs scoped to their session.
//
// # Wire format
//
// All types serialize to snake_case JSON. Every field tolerates absence on
// read; absent fields decode to their zero values. In particular is_reviewing
// absent means false.
package session
