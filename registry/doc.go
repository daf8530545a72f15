// Package registry is a small dependency registry used at process configuration time.
//
// It supports two operations: register an implementation for a key unless the key is
// already bound (TryAdd), and resolve the instance bound to a key (Resolve). Instances
// built by the registry are created once and cached; Close releases the ones that
// implement io.Closer. Registration is meant for single-threaded startup, resolution is
// safe for concurrent use.
package registry
