//go:build windows

package console

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

var (
	kernel32       = syscall.NewLazyDLL("kernel32.dll")
	user32         = syscall.NewLazyDLL("user32.dll")
	attachConsole  = kernel32.NewProc("AttachConsole")
	allocConsole   = kernel32.NewProc("AllocConsole")
	getStdHandle   = kernel32.NewProc("GetStdHandle")
	setTitleProc   = kernel32.NewProc("SetConsoleTitleW")
	getWindowProc  = kernel32.NewProc("GetConsoleWindow")
	showWindowProc = user32.NewProc("ShowWindow")
	setFocusProc   = user32.NewProc("SetFocus")
)

const (
	ATTACH_PARENT_PROCESS = ^uint32(0) // -1 as uint32
	STD_INPUT_HANDLE      = ^uint32(0) - 10 + 1
	STD_OUTPUT_HANDLE     = ^uint32(0) - 11 + 1
	STD_ERROR_HANDLE      = ^uint32(0) - 12 + 1
	SW_SHOWNORMAL         = 1
)

func validHandle(h uintptr) bool {
	return h != 0 && h != uintptr(syscall.InvalidHandle)
}

// Attach makes sure a console window exists when the installer was started by
// double-click, attaching to the parent's console or creating one.
func Attach() bool {
	if h, _, _ := getStdHandle.Call(uintptr(STD_OUTPUT_HANDLE)); validHandle(h) {
		return true
	}

	wasAllocated := false
	if ok, _, _ := attachConsole.Call(uintptr(ATTACH_PARENT_PROCESS)); ok == 0 {
		if ok, _, _ := allocConsole.Call(); ok == 0 {
			return false
		}
		wasAllocated = true
	}

	if h, _, _ := getStdHandle.Call(uintptr(STD_OUTPUT_HANDLE)); validHandle(h) {
		os.Stdout = os.NewFile(h, "/dev/stdout")
		SetOutput(os.Stdout)
	}
	if h, _, _ := getStdHandle.Call(uintptr(STD_ERROR_HANDLE)); validHandle(h) {
		os.Stderr = os.NewFile(h, "/dev/stderr")
	}
	if h, _, _ := getStdHandle.Call(uintptr(STD_INPUT_HANDLE)); validHandle(h) {
		os.Stdin = os.NewFile(h, "/dev/stdin")
	}

	if wasAllocated {
		if hwnd := GetWindow(); hwnd != 0 {
			showWindowProc.Call(hwnd, SW_SHOWNORMAL)
			setFocusProc.Call(hwnd)
		}
	}
	return true
}

// SetTitle sets the console window title
func SetTitle(title string) error {
	titlePtr, err := syscall.UTF16PtrFromString(title)
	if err != nil {
		return err
	}

	r1, _, err := setTitleProc.Call(uintptr(unsafe.Pointer(titlePtr)))
	if r1 == 0 {
		return fmt.Errorf("SetConsoleTitle failed: %v", err)
	}
	return nil
}

// GetWindow returns the console window handle (HWND)
func GetWindow() uintptr {
	hwnd, _, _ := getWindowProc.Call()
	return hwnd
}
