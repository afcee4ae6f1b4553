// Package params provides the typed parameter values carried by deep links.
//
// This package contains value types and their codecs only. The route,
// validate and deeplink packages import params; params imports nothing
// internal.
//
// Key design constraints:
//   - A parameter is a String, a Number or a Bool. Nothing else.
//   - Path parameters stay strings; query parameters are coerced
//     ("true"/"false" to Bool, numeric strings to Number).
//   - Map iteration for output always goes through SortedKeys.
package params
