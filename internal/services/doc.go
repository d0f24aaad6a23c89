// Package services implements the cinema point-of-sale managers: seats,
// products, accounts and sales.
//
// Every mutation appends a new entity version through the repositories
// vended by a repomanager.RepositoryManager. Mutations of one id are
// serialized with a locks.Locker and each append is checked optimistically
// by the store (a lost race surfaces as common.ErrConcurrentModification).
// Multi-row work such as committing or cancelling a sale runs inside a
// single dbx.WithTx transaction.
package services
