package checkpointer

import (
	"fmt"
	"time"
)

// FileTimer returns a function which generates filenames stamped with
// the Unix time in nanoseconds at which each filename was generated.
func FileTimer(filename, extension string) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v%v", filename, time.Now().UnixNano(),
			extension)
	}
}
