// Package logger builds the service's JSON slog logger and threads
// request-scoped copies of it through context.Context.
//
// The trace middleware stores a logger tagged with trace_id; handlers,
// the sale service and the postgres stores pull it back with FromContext,
// so every line written while serving a purchase carries the same trace.
package logger
