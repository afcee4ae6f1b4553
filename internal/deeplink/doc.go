// Package deeplink is the navigation entry point: it resolves incoming
// URLs, applies the auth gate and route guards, and hands the result to
// the navigator.
//
// A Service is constructed explicitly and owns its route resolver, its
// navigator reference and its initialization flag. Attempts made before
// Initialize are rejected with ErrNotInitialized and logged; they are
// never queued for replay.
package deeplink
