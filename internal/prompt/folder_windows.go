//go:build windows

package prompt

import (
	"fmt"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// HasFolderDialog reports whether SelectFolder can show a dialog
const HasFolderDialog = true

// bifReturnOnlyFSDirs | bifEditBox
const browseFlags = 0x0001 | 0x0010

func selectFolder(title string, owner uintptr) (string, error) {
	if err := ole.CoInitialize(0); err != nil {
		return "", fmt.Errorf("failed to initialize COM: %w", err)
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("Shell.Application")
	if err != nil {
		return "", fmt.Errorf("failed to create Shell object: %w", err)
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return "", fmt.Errorf("failed to get IDispatch interface: %w", err)
	}
	defer shell.Release()

	folderObj, err := oleutil.CallMethod(shell, "BrowseForFolder", int(owner), title, browseFlags)
	if err != nil {
		return "", fmt.Errorf("failed to show folder dialog: %w", err)
	}
	defer folderObj.Clear()

	if folderObj.Value() == nil {
		return "", ErrCancelled
	}
	folderItem := folderObj.ToIDispatch()
	if folderItem == nil {
		return "", ErrCancelled
	}

	selfProp, err := oleutil.GetProperty(folderItem, "Self")
	if err != nil {
		return "", fmt.Errorf("failed to get folder item: %w", err)
	}
	defer selfProp.Clear()

	pathProp, err := oleutil.GetProperty(selfProp.ToIDispatch(), "Path")
	if err != nil {
		return "", fmt.Errorf("failed to get folder path: %w", err)
	}
	defer pathProp.Clear()

	selectedPath := pathProp.ToString()
	if selectedPath == "" {
		return "", ErrCancelled
	}
	return selectedPath, nil
}
