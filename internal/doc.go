// Package internal contains helper utilities that are intentionally private
// to twofa: secure backup-code generation and per-key locking.
//
// # Sub-packages
//
//   - flows — pure-function flow orchestrators for the Engine operations
//   - lockout — failed-attempt accounting and block enforcement (memory + Redis)
//
// # What this package must NOT do
//
//   - Export types that appear in the public twofa API.
//   - Be imported by any package outside the twofa module.
package internal
