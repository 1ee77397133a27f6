package words

import (
	"errors"
	"sync"
)

var ErrNoWordFile = errors.New("words: no word file given")

var (
	initOnce   sync.Once
	defaultCat *Catalog
	initialErr error
)

// Init loads the process-wide catalog exactly once. Later calls return the
// result of the first one regardless of path.
func Init(path string, opts ...Option) error {
	initOnce.Do(func() {
		if path == "" {
			initialErr = ErrNoWordFile
			return
		}
		defaultCat, initialErr = Load(path, opts...)
	})
	return initialErr
}

// Default returns the catalog loaded by Init, or nil before a successful Init.
func Default() *Catalog {
	return defaultCat
}
