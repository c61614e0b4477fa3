// Package memory provides in-process implementations of the store
// interfaces. All ledgers share one state guarded by a mutex; a unit of work
// runs against a staged copy that replaces the live state only when the
// callback succeeds. It backs the server when database.driver is "memory"
// and is the default backend in service tests.
package memory
