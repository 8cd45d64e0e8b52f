package go_nativeload_pure

import (
	"fmt"
	"path"
	"strings"
	"sync"
)

type OS string

const (
	OSMacOS   OS = "macos"
	OSWindows OS = "windows"
	OSLinux   OS = "linux"
	OSSolaris OS = "solaris"
)

type Arch string

const (
	ArchX86_64  Arch = "x86_64"
	ArchAArch64 Arch = "aarch64"
	ArchSparc   Arch = "sparc"
)

// Platform is the (OS, architecture) key a bundled library is filed under.
type Platform struct {
	OS   OS
	Arch Arch
}

func (p Platform) String() string {
	return string(p.OS) + "/" + string(p.Arch)
}

// Matching is ordered; the first enum whose token occurs in the host string wins.
var (
	osTokens = []struct {
		os     OS
		tokens []string
	}{
		{OSMacOS, []string{"mac", "darwin"}},
		{OSWindows, []string{"windows"}},
		{OSLinux, []string{"linux"}},
		{OSSolaris, []string{"sunos", "solaris"}},
	}
	archTokens = []struct {
		arch   Arch
		tokens []string
	}{
		{ArchX86_64, []string{"x86_64", "amd64", "x64"}},
		{ArchAArch64, []string{"aarch64", "arm64"}},
		{ArchSparc, []string{"sparc", "sun4"}},
	}
)

// DetectPlatform maps host OS and architecture identifiers to a Platform
// using case-insensitive substring matching.
func DetectPlatform(osName, archName string) (Platform, error) {
	var p Platform

	lowerOS := strings.ToLower(osName)
	for _, candidate := range osTokens {
		if containsAny(lowerOS, candidate.tokens) {
			p.OS = candidate.os
			break
		}
	}
	if p.OS == "" {
		return Platform{}, fmt.Errorf("%w: operating system %q", ErrUnsupportedPlatform, osName)
	}

	lowerArch := strings.ToLower(archName)
	for _, candidate := range archTokens {
		if containsAny(lowerArch, candidate.tokens) {
			p.Arch = candidate.arch
			break
		}
	}
	if p.Arch == "" {
		return Platform{}, fmt.Errorf("%w: architecture %q", ErrUnsupportedPlatform, archName)
	}

	return p, nil
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

var hostIdentifiers = sync.OnceValues(readHostIdentifiers)

// HostIdentifiers returns the host OS and architecture strings. They are
// read once per process.
func HostIdentifiers() (osName, archName string) {
	return hostIdentifiers()
}

var hostPlatform = sync.OnceValues(func() (Platform, error) {
	return DetectPlatform(HostIdentifiers())
})

// HostPlatform detects the platform of the running process.
func HostPlatform() (Platform, error) {
	return hostPlatform()
}

// MapLibraryName returns the file name the OS uses for the logical library name.
func MapLibraryName(os OS, name string) string {
	switch os {
	case OSWindows:
		return name + ".dll"
	case OSMacOS:
		return "lib" + name + ".dylib"
	default:
		return "lib" + name + ".so"
	}
}

// ResourcePath builds the packaged location of a library, e.g.
// /lib/linux/x86_64/libxgboost4j.so.
func ResourcePath(root string, p Platform, name string) string {
	return path.Join("/", root, string(p.OS), string(p.Arch), MapLibraryName(p.OS, name))
}
