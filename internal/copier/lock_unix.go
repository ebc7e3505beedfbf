//go:build unix

package copier

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ETXTBSY comes from writing a running executable, EBUSY from some network filesystems
func isPlatformLock(err error) bool {
	return errors.Is(err, unix.ETXTBSY) || errors.Is(err, unix.EBUSY)
}
