//go:build linux || darwin || freebsd || solaris || illumos

package go_nativeload_pure

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// The architecture is the process's, not the kernel's: a 32-bit process
// on a 64-bit kernel needs the 32-bit library.
func readHostIdentifiers() (string, string) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return runtime.GOOS, runtime.GOARCH
	}
	return unix.ByteSliceToString(uts.Sysname[:]), runtime.GOARCH
}
