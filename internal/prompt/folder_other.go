//go:build !windows

package prompt

import "errors"

// HasFolderDialog reports whether SelectFolder can show a dialog
const HasFolderDialog = false

func selectFolder(string, uintptr) (string, error) {
	return "", errors.New("folder dialog is only available on Windows")
}
