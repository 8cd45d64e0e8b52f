//go:build windows

package go_nativeload_pure

import (
	"golang.org/x/sys/windows"
)

func openLibrary(path string) (uintptr, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

func lookupSymbol(lib uintptr, name string) (uintptr, error) {
	return windows.GetProcAddress(windows.Handle(lib), name)
}

func closeLibrary(lib uintptr) {
	_ = windows.FreeLibrary(windows.Handle(lib))
}

// addSearchDir lets dependent DLLs of a library resolve from dir too.
func addSearchDir(dir string) error {
	return windows.SetDllDirectory(dir)
}
