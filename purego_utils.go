//go:build darwin || linux

// Shared utilities for purego-based codec engines.

package mediadec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// nativeLibrary is a shared library opened at most once per process.
type nativeLibrary struct {
	name   string   // file name without prefix or suffix, e.g. "media_vpx"
	envVar string   // variable holding the full path of the library file
	extra  []string // additional sonames tried through the system loader

	once   sync.Once
	handle uintptr
	err    error
}

// load opens the library and binds its symbols on first use. dir, if set, is
// searched before the default locations.
func (l *nativeLibrary) load(dir string, bind func(handle uintptr) error) (uintptr, error) {
	l.once.Do(func() {
		l.handle, l.err = l.open(dir, bind)
	})
	return l.handle, l.err
}

func (l *nativeLibrary) open(dir string, bind func(handle uintptr) error) (uintptr, error) {
	var lastErr error
	for _, path := range l.candidates(dir) {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		if err := bind(handle); err != nil {
			purego.Dlclose(handle)
			lastErr = err
			continue
		}
		return handle, nil
	}

	if lastErr != nil {
		return 0, fmt.Errorf("failed to load lib%s: %w", l.name, lastErr)
	}
	return 0, errors.New("lib" + l.name + " not found in any standard location")
}

func (l *nativeLibrary) fileName() string {
	if runtime.GOOS == "darwin" {
		return "lib" + l.name + ".dylib"
	}
	return "lib" + l.name + ".so"
}

// candidates lists the paths tried in order.
func (l *nativeLibrary) candidates(dir string) []string {
	libName := l.fileName()
	var paths []string

	if dir != "" {
		paths = append(paths, filepath.Join(dir, libName))
	}

	// Environment variable overrides
	if envPath := os.Getenv(l.envVar); envPath != "" {
		paths = append(paths, envPath)
	}
	if envPath := os.Getenv("MEDIA_SDK_LIB_PATH"); envPath != "" {
		paths = append(paths, filepath.Join(envPath, libName))
	}

	// Next to the executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, libName),
			filepath.Join(exeDir, "..", "lib", libName),
		)
	}

	// Development builds
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, "build", libName))
	}
	if root := findModuleRoot(); root != "" {
		paths = append(paths, filepath.Join(root, "build", libName))
	}

	// System paths
	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			libName,
			"/usr/local/lib/"+libName,
			"/opt/homebrew/lib/"+libName,
		)
	case "linux":
		paths = append(paths,
			libName,
			"/usr/local/lib/"+libName,
			"/usr/lib/"+libName,
		)
	}
	return append(paths, l.extra...)
}

// symbol pairs a Go function pointer with the C symbol it binds to.
type symbol struct {
	fptr any
	name string
}

// bindSymbols resolves every symbol before registering it, so a missing
// symbol is reported as an error instead of a panic.
func bindSymbols(handle uintptr, syms []symbol) error {
	for _, s := range syms {
		addr, err := purego.Dlsym(handle, s.name)
		if err != nil {
			return fmt.Errorf("missing symbol %s: %w", s.name, err)
		}
		purego.RegisterFunc(s.fptr, addr)
	}
	return nil
}

// goStringFromPtr converts a NUL-terminated C string to a Go string.
func goStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(ptr)
	var length int
	for *(*byte)(unsafe.Add(p, length)) != 0 {
		length++
		if length > 4096 { // Safety limit
			break
		}
	}
	return string(unsafe.Slice((*byte)(p), length))
}

// goStringN copies n bytes of C memory into a Go string.
func goStringN(ptr uintptr, n int) string {
	if ptr == 0 || n <= 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
}

// nativePlane wraps engine-owned plane memory. ptr addresses row 0; with a
// negative stride the rows are stored bottom-up.
func nativePlane(ptr uintptr, width, height, stride int) Plane {
	if ptr == 0 || width <= 0 || height <= 0 {
		return Plane{}
	}
	abs := stride
	base := ptr
	if stride < 0 {
		abs = -stride
		base = ptr - uintptr((height-1)*abs)
	}
	size := (height-1)*abs + width
	return Plane{
		Data:   unsafe.Slice((*byte)(unsafe.Pointer(base)), size),
		Width:  width,
		Height: height,
		Stride: stride,
	}
}

// findModuleRoot walks up from the working directory to the directory
// containing go.mod.
func findModuleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
