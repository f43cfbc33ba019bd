// Package flows holds the pure orchestration logic of the engine's hot
// paths. Each flow is a free function taking a deps struct of function
// fields, so the sequencing, error mapping, and audit emission can be tested
// without Redis, Postgres, or real crypto.
//
// Flows never import the root package. Sentinel errors, metric ids, and
// audit event names are injected by the host through the deps struct.
package flows
