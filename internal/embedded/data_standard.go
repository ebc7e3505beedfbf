//go:build !embedded

package embedded

// Normal builds read the bundle from disk next to the executable.

func getZipData() []byte {
	return nil
}
