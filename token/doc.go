// Package token issues and verifies the optional access tokens the engine
// attaches to successful logins. Tokens are standard JWTs signed with HS256
// or Ed25519; the "tfa" claim marks that a second factor was verified.
//
// # Architecture boundaries
//
// This package owns signing and verification only. Whether a token is issued
// at all is the Engine's decision, driven by its configuration.
package token
