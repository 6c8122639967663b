// Package store picks the collection.Repository backend named in config.
// Each backend lives in its own sub-package so a binary only links the
// drivers it uses through Open.
package store
