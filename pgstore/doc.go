// Package pgstore implements the engine's storage interfaces on PostgreSQL:
// UserProvider, RoleProvider, and TokenStore over a single pgx pool.
//
// # Transactional consumption
//
// Token consumption opens one transaction, locks the row with SELECT FOR
// UPDATE, runs the apply callback with the transaction attached to the
// context, and flips the used flag before committing. Provider mutations
// issued from inside apply join that transaction automatically, so a token
// and its side effect commit or roll back together.
//
// # Schema
//
// The schema ships as embedded goose migrations; run [Store.Migrate] at
// startup. Deleting a user cascades to roles and tokens.
package pgstore
