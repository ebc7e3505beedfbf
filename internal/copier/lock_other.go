//go:build !windows && !unix

package copier

func isPlatformLock(error) bool {
	return false
}
