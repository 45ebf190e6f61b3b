package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("BIBLIODASH_TEST_MODE") == "" {
			_ = os.Setenv("BIBLIODASH_TEST_MODE", "1")
		}
	})
}
