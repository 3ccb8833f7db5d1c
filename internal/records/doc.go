// Package records implements per-module record collections on top of a
// storage backend.
//
// A module is a named collection ("notes", "banking", "todos" or a custom
// name) owned by one principal. Records are schemaless field maps with an
// id and created/modified timestamps. Every operation requires an unlocked
// session from the session package; the store encrypts whole collections
// with the session key unless encryption is disabled.
//
// SaveRecord and DeleteRecord run load, mutate and persist under
// a per-(principal, module) mutex, so concurrent writers never lose
// records.
package records
