// Package driving provides interfaces for external actors (primary/inbound ports).
//
// The CLI adapter drives the core through these interfaces.
package driving
