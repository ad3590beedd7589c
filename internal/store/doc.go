// Package store persists the two values a profile keeps between runs: the session
// credential and the anonymous identity.
//
// Key Implementations:
//   - [TokenStore] : credential get/set/clear and lazy anonymous identity
//   - [SQLiteStorage] : profile_values table in the profile database
//   - [MemoryStorage] : process-local map for tests and ephemeral runs
//
// The anonymous identity is created with put-if-absent semantics: if two
// processes race, the value that reached the database first is the one both keep.
package store
