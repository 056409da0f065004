// Package valkey provides a Valkey-backed implementation of the
// storage.Store interface.
//
// It serves deployments where the persistent scope must be shared across
// machines, such as a row of reception kiosks operating under one hospital
// account: a token remembered on one kiosk is visible to all of them.
// Single-machine deployments should prefer the sqlitestore package, which
// needs no server.
package valkey
