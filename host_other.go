//go:build !(linux || darwin || freebsd || solaris || illumos)

package go_nativeload_pure

import "runtime"

func readHostIdentifiers() (string, string) {
	return runtime.GOOS, runtime.GOARCH
}
