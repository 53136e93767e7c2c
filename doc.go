// Package twofa provides a two-factor authentication engine: per-identity
// TOTP secret provisioning, single-use backup codes, and a failed-attempt
// lockout policy. Register provisions, Login verifies, and
// RegenerateBackupCodes replaces a spent code set.
//
// The package is designed for concurrent callers: Engine methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
// Operations on the same identity are serialized internally; operations on
// different identities proceed in parallel.
//
// # Architecture boundaries
//
// twofa is the public surface. It exposes [Engine], [Builder], [Config], the
// [CredentialStore] integration interface, and value types
// (RegistrationResult, LoginResult, AuditEvent, MetricsSnapshot). All internal
// coordination — flow orchestration, lockout accounting, code generation —
// lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Collect credentials or render anything. Callers gather input and display
//     secrets, provisioning URIs, and backup codes; the engine only verifies.
//   - Distinguish failure causes in Login results. A wrong password, a wrong
//     TOTP code, and a consumed backup code all produce the same outcome.
//   - Re-expose a secret or backup code after registration.
//
// State lives for the process lifetime with the default in-memory store; a
// Redis-backed store can be substituted through [Builder.WithRedis].
package twofa
