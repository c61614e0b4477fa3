// Package testdb provides utilities for tests that run against a real
// PostgreSQL database.
//
// Tests call GetTestDBWithT to obtain a migrated connection. The call skips
// the test when no database URL is configured, so packages can mix unit and
// database tests under the integration build tag.
//
// Two isolation patterns are supported:
//
//   - WithTx runs the test body in a transaction that is always rolled back.
//     Use it for store tests that need no concurrent access.
//   - ResetTables truncates every ledger table. Use it for tests that must
//     commit, such as concurrent purchases through a unit of work.
//
// Example:
//
//	func TestAccountStore(t *testing.T) {
//		db := testdb.GetTestDBWithT(t)
//		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//			accounts := postgres.NewPostgresAccountStore(tx, nil)
//			// ...
//		})
//	}
package testdb
