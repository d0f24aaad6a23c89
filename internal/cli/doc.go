// Package cli implements the interactive point-of-sale console.
//
// NewApp wires configuration, storage, locking, services and receipt
// exporters together; Run reads one command per line and dispatches it.
// A sale in progress is an explicit *services.Draft held by the App, so
// only one draft exists per console at a time.
package cli
