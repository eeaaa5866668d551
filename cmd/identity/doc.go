// Package identity owns learner accounts: creation, lookup by normalized email,
// and credential verification.
//
// The hashed credential never leaves the store; every Account returned by a
// Store is a copy without it. Stores are safe for concurrent use.
package identity
