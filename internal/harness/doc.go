// Package harness runs deep-link conformance scenarios.
//
// A scenario compiles a route table, opens a sequence of URLs through a
// deeplink.Service wired to a recording navigator, and checks each
// outcome. The ordered outcomes form a trace that can be compared with a
// golden file.
//
// # Scenario Format
//
//	name: auth_resume
//	description: "Protected links survive the login round trip"
//	routes: routes.cue          # optional, defaults to the built-in table
//	scheme: "pharmaguide://"    # optional
//	alternates: ["https://pharmaguide.app"]
//	auth_route: login
//	fallback_route: home
//	authenticated: false
//	steps:
//	  - open: "pharmaguide://stack/42"
//	    expect:
//	      outcome: auth_redirect
//	      screen: Login
//	  - login: true
//	    expect:
//	      outcome: navigated
//	      route: stack_item
//	      params: { itemId: "42" }
//
// A login step marks the user as signed in and resumes the most recent
// auth redirect.
//
// Golden traces live in testdata/golden/<name>.golden and are rewritten
// with:
//
//	go test ./internal/harness -update
package harness
