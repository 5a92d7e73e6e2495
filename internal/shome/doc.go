// Package shome implements the client for the sHome apartment cloud
// API: session establishment, signed requests, device discovery, and
// per-category state reads and writes.
//
// # Session Lifecycle
//
// A session is established in two steps. A version check opens a
// server-side session and yields a JSESSIONID/WMONID cookie pair; after
// a short settle pause a signed login exchanges the hashed credentials
// for an access token scoped to those cookies. The token and cookies
// are held together and replaced wholesale on every login.
//
// When a request comes back 401 the client re-logs-in once and retries
// the request. Concurrent failures share a single re-login via
// singleflight, so a burst of expired requests costs one login.
//
// # Request Signing
//
// Every call carries a createDate timestamp and a hashData signature:
// the SHA-512 digest of a fixed prefix followed by endpoint-specific
// fields and the timestamp. Field order is part of each endpoint's
// contract; the Endpoint constructors are the only place it is encoded.
//
// # Client Sharing
//
// Registry hands out one Client per account. Logging in invalidates the
// account's previous session server-side, so independent clients for
// the same username would continuously evict each other.
//
// # Security Considerations
//
// Passwords are hashed with SHA-512 before they reach this package and
// only the digest is transmitted. Access tokens and cookies are held in
// memory only and never logged.
package shome
