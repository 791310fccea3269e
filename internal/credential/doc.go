// Package credential holds the decision logic for credential hardening:
// password policy scoring, password history, expiry and lockout arithmetic,
// TOTP provisioning and verification, and single-use backup codes.
//
// Every function works on explicit inputs and returns new values. Nothing in
// this package reads or writes storage; persisting the results, and making
// the failed-login counter atomic, is the caller's job.
package credential
