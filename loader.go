package go_nativeload_pure

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

type logger interface {
	Infof(msg string, args ...interface{})
	Debugf(msg string, args ...interface{})
	Errorf(msg string, args ...interface{})
	Warnf(msg string, args ...interface{})
}

// Strategy names how a library ended up in the process.
type Strategy string

const (
	StrategySystemPath Strategy = "system-path"
	StrategyEmbedded   Strategy = "embedded"
)

type Config struct {
	// LibNames are loaded in order.
	LibNames []string
	// NativeDir is added to the library search path before loading.
	// Relative paths are resolved against the executable's directory.
	NativeDir string
	// ResourceRoot is the directory inside the package holding
	// <os>/<arch>/<library> files.
	ResourceRoot string
	// TempDir receives extracted libraries. Empty means os.TempDir().
	TempDir string
}

func DefaultConfig() Config {
	return Config{
		LibNames:     []string{"xgboost4j"},
		NativeDir:    "../../lib/",
		ResourceRoot: "/lib",
	}
}

type Option func(*Loader)

// WithPlatform pins the platform key instead of detecting the host.
func WithPlatform(p Platform) Option {
	return func(l *Loader) {
		l.platform = func() (Platform, error) { return p, nil }
	}
}

// WithDynamicLoader replaces the OS dynamic loader. close may be nil.
func WithDynamicLoader(open func(path string) (uintptr, error), close func(handle uintptr)) Option {
	return func(l *Loader) {
		l.open = open
		l.close = close
	}
}

// LoadedLibrary describes one library mapped into the process.
type LoadedLibrary struct {
	Name     string
	Path     string
	Strategy Strategy
	handle   uintptr
}

type Loader struct {
	cfg        Config
	resources  fs.FS
	logger     logger
	open       func(path string) (uintptr, error)
	close      func(handle uintptr)
	platform   func() (Platform, error)
	mu         sync.Mutex
	done       bool
	err        error
	searchDirs []string
	libs       []*LoadedLibrary
	tempFiles  []string
}

// New creates a Loader for the libraries in cfg, packaged in resources.
// A nil logger logs through logrus' standard logger.
func New(cfg Config, resources fs.FS, logger logger, opts ...Option) *Loader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.ResourceRoot == "" {
		cfg.ResourceRoot = "/"
	}
	l := &Loader{
		cfg:       cfg,
		resources: resources,
		logger:    logger,
		open:      openLibrary,
		close:     closeLibrary,
		platform:  HostPlatform,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// EnsureLoaded loads every configured library exactly once. Concurrent
// callers block until the first attempt finishes; its outcome is returned
// to every caller, now and later.
func (l *Loader) EnsureLoaded() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.done {
		return l.err
	}
	l.err = l.loadAll()
	l.done = true
	return l.err
}

func (l *Loader) loadAll() error {
	// best effort, only reported if loading fails
	var searchErr error
	if l.cfg.NativeDir != "" {
		searchErr = l.addNativeDir(l.cfg.NativeDir)
	}

	platform, err := l.platform()
	if err != nil {
		return err
	}
	l.logger.Debugf("Detected platform %s", platform)

	for _, name := range l.cfg.LibNames {
		if err := l.smartLoad(platform, name); err != nil {
			if searchErr != nil {
				l.logger.Errorf("Failed to add native path to the library search path: %v", searchErr)
			}
			return err
		}
	}

	l.logger.Infof("Native libraries successfully loaded")
	return nil
}

func (l *Loader) smartLoad(platform Platform, name string) error {
	systemErr := l.tryLoadFromSystemPath(platform, name)
	if systemErr == nil {
		return nil
	}
	l.logger.Debugf("%s not found on the library search path, falling back to the package: %v", name, systemErr)

	if err := l.loadFromEmbeddedResource(name, ResourcePath(l.cfg.ResourceRoot, platform, name)); err != nil {
		l.logger.Errorf("Failed to load %s from both the native path and the package", name)
		return multierr.Append(err, systemErr)
	}
	return nil
}

func (l *Loader) tryLoadFromSystemPath(platform Platform, name string) error {
	fileName := MapLibraryName(platform.OS, name)

	candidates := make([]string, 0, len(l.searchDirs)+1)
	for _, dir := range l.searchDirs {
		candidates = append(candidates, filepath.Join(dir, fileName))
	}
	candidates = append(candidates, fileName)

	var errs error
	for _, candidate := range candidates {
		handle, err := l.open(candidate)
		if err == nil && handle != 0 {
			l.libs = append(l.libs, &LoadedLibrary{Name: name, Path: candidate, Strategy: StrategySystemPath, handle: handle})
			l.logger.Debugf("Loaded %s from %s", name, candidate)
			return nil
		}
		if err == nil {
			err = errors.New("loader returned a nil handle")
		}
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", candidate, err))
	}
	return fmt.Errorf("%w: %s is not on the library search path: %w", ErrLoadFailure, fileName, errs)
}

func (l *Loader) loadFromEmbeddedResource(name, path string) error {
	tempPath, err := ExtractResource(l.resources, path, l.cfg.TempDir)
	if err != nil {
		return err
	}
	l.tempFiles = append(l.tempFiles, tempPath)

	handle, err := l.open(tempPath)
	if err != nil {
		return fmt.Errorf("%w: %s extracted to %s: %w", ErrLoadFailure, path, tempPath, err)
	}
	if handle == 0 {
		return fmt.Errorf("%w: %s extracted to %s: loader returned a nil handle", ErrLoadFailure, path, tempPath)
	}

	l.libs = append(l.libs, &LoadedLibrary{Name: name, Path: tempPath, Strategy: StrategyEmbedded, handle: handle})
	l.logger.Debugf("Loaded %s from package resource %s", name, path)
	return nil
}

// addNativeDir adds dir to the directories tried before the OS search path.
func (l *Loader) addNativeDir(dir string) error {
	if !filepath.IsAbs(dir) {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}
		dir = filepath.Join(filepath.Dir(exe), dir)
	}

	if slices.Contains(l.searchDirs, dir) {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("native dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("native dir %s is not a directory", dir)
	}
	if err := addSearchDir(dir); err != nil {
		return fmt.Errorf("failed to add %s to the library search path: %w", dir, err)
	}

	l.searchDirs = append(l.searchDirs, dir)
	return nil
}

// Loaded returns the libraries loaded so far.
func (l *Loader) Loaded() []LoadedLibrary {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]LoadedLibrary, 0, len(l.libs))
	for _, lib := range l.libs {
		result = append(result, *lib)
	}
	return result
}

// Handle returns the OS handle of a loaded library.
func (l *Loader) Handle(name string) (uintptr, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, lib := range l.libs {
		if lib.Name == name {
			return lib.handle, true
		}
	}
	return 0, false
}

// RegisterFunc binds the exported symbol of a loaded library to fptr, a
// pointer to a func variable.
func (l *Loader) RegisterFunc(fptr any, name, symbol string) error {
	handle, ok := l.Handle(name)
	if !ok {
		return fmt.Errorf("library %s is not loaded", name)
	}

	addr, err := lookupSymbol(handle, symbol)
	if err != nil {
		return fmt.Errorf("failed to resolve %s in %s: %w", symbol, name, err)
	}
	purego.RegisterFunc(fptr, addr)
	return nil
}

// Close unloads the libraries and removes the extracted temporary files.
// Functions bound with RegisterFunc must not be called afterwards, and
// EnsureLoaded fails from then on.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.done = true
	l.err = fmt.Errorf("%w: loader closed", ErrLoadFailure)

	for _, lib := range l.libs {
		if l.close != nil {
			l.close(lib.handle)
		}
	}
	l.libs = nil

	var errs error
	for _, path := range l.tempFiles {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warnf("Failed to remove temporary library %s: %v", path, err)
			errs = multierr.Append(errs, err)
		}
	}
	l.tempFiles = nil
	return errs
}
