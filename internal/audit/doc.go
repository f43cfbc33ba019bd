// Package audit implements async event dispatching for security-relevant
// operations: logins, lockouts, token issuance and consumption, permission
// denials.
//
// Emission never blocks the calling flow beyond the configured buffering
// policy, and a failed or absent sink never fails the operation being
// audited.
package audit
