// Package password implements password hashing and verification with
// Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification is parameter-driven from the stored hash, so hashes produced
// under older parameter sets keep verifying after a configuration change.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive
//     hashes.
//   - Enforce a password policy. The engine accepts whatever the caller
//     collected; policy belongs to the caller.
package password
