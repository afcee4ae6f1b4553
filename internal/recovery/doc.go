// Package recovery snapshots the navigation tree, persists it, and decides
// on start-up whether a stored snapshot is safe to restore.
//
// Restoration is fail-closed. A snapshot that is too old, stamped in the
// future, of another schema version, owned by another user, referencing an
// unknown route, or simply unreadable is discarded and the fallback route
// (if any) is used instead.
package recovery
