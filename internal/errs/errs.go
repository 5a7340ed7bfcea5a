// Package errs defines the error shapes returned to API clients.
//
// Every failure that reaches the HTTP layer is turned into an HTTPError so
// clients receive consistent, machine-readable codes and, for form input,
// field-level messages.
package errs
