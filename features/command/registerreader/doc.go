// Package registerreader implements the Register Reader use case.
//
// The reader's entitlements are derived from the membership tier once, at registration,
// and stored on the reader record. Registering the same reader id twice is idempotent.
package registerreader
