// Package watcher feeds an external system configuration file into the
// application.
//
// The file (YAML, TOML or JSON, flat key/value) is decoded on start and
// whenever it changes on disk. Entries that differ from the last accepted
// read are submitted as a System level update. Rapid successive writes are
// debounced into one read.
package watcher
