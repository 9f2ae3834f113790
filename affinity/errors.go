// File: affinity/errors.go
// Author: momentics <momentics@gmail.com>

package affinity

import (
	"errors"
	"fmt"
)

// ErrNotSupported indicates CPU affinity is not supported on this platform.
var ErrNotSupported = errors.New("affinity: not supported on this platform")

func errInvalidCPU(cpuID int) error {
	return fmt.Errorf("affinity: invalid cpu %d", cpuID)
}
