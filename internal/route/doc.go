// Package route implements the deep-link route table, URL parsing,
// path matching, the parameter pipeline and link generation.
//
// Resolution flow for one URL:
//  1. Prefixes.Strip removes the app scheme or the longest alternate prefix.
//  2. SplitURL separates path and query at the first "?".
//  3. Table.Match scans routes in registration order; the first route whose
//     tokens match the path segments wins. There is no most-specific rule.
//  4. Query parameters are parsed and coerced, path parameters are merged
//     on top of them.
//  5. The route validator runs; its sanitized values overwrite the map.
//  6. The route transformer runs; its output is merged over the map.
//
// Generate is the inverse: for any parameters that pass validation,
// Resolve(Generate(name, p)).Params equals p modulo query coercion.
//
// The table is immutable once frozen, so matching needs no locking.
package route
