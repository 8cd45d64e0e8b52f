//go:build !windows

package go_nativeload_pure

import "github.com/ebitengine/purego"

func openLibrary(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func lookupSymbol(lib uintptr, name string) (uintptr, error) {
	return purego.Dlsym(lib, name)
}

func closeLibrary(lib uintptr) {
	_ = purego.Dlclose(lib)
}

// dlopen only honors LD_LIBRARY_PATH / DYLD_LIBRARY_PATH as read at
// process start, so the Loader tries extra directories itself.
func addSearchDir(dir string) error {
	return nil
}
