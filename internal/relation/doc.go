// Package relation declares which parent-child relationships accept
// reassignable nested payloads, and how.
//
// A Descriptor is created once per (parent type, relationship name) by
// Registry.Declare and never changes afterwards. Registries are built at
// startup, usually from CUE declarations (see internal/compiler), and are
// read-only once handed to a reconciler.
package relation
