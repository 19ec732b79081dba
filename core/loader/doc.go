// Package loader registers the HTTP features of the server and mounts the enabled ones.
//
// A feature bundles its routes behind the Feature interface; the Manager keeps them
// in registration order and LoadAll mounts every enabled feature on a router,
// stopping at the first one that fails. Disabled features are skipped and logged.
package loader
