// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters): the chunker turns entity
// snapshots into persisted chunks, the manifest manager keeps the
// lookup indices honest, and the context builder answers queries.
//
// Services are pure Go with no CGO dependencies.
package services
