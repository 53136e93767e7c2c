// Package flows contains pure-function orchestrators for the Engine
// operations.
//
// Each flow function (RunRegister, RunLogin, RunRegenerateBackupCodes)
// accepts a typed dependency
// struct and returns results without side-effects beyond those dependencies.
// This keeps the Engine type thin and lets the flows be unit-tested
// exhaustively with stub dependencies.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import twofa (to avoid import cycles) — flow-local record types are
//     converted at the Engine boundary.
//   - Perform I/O directly; all I/O is mediated through dependency functions.
package flows
