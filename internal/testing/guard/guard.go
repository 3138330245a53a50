// Package guard flips the test-mode flag before any other package reads it.
// Test packages that touch runtime startup blank-import it.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("HAWKER_TEST_MODE") == "" {
			_ = os.Setenv("HAWKER_TEST_MODE", "1")
		}
	})
}
