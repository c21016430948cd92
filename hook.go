package memhook

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// site records the owner of a patched entry address.
type site struct {
	// the hook value whose funcval the jump template points at,
	// kept here so the GC cannot free it while code refers to it
	keep interface{}
	// set once the owner gave up control of the patch
	detached bool
}

var (
	// patched sites with original addresses as keys
	hooks map[uintptr]*site
	// protect the hooks map
	lock sync.Mutex
)

var (
	// ErrAccess means a read or write transferred fewer bytes than requested
	ErrAccess = errors.New("memory access failed")
	// ErrProtection means the OS refused to change page protection
	ErrProtection = errors.New("protection change failed")
	// ErrInvalidIndex means a vtable slot could not be read
	ErrInvalidIndex = errors.New("invalid method index")
	// ErrConstruction means saving or installing the initial patch failed
	ErrConstruction = errors.New("hook construction failed")
	// ErrDoubleHook means already hooked
	ErrDoubleHook = errors.New("double hook")
	// ErrInputType means inputs are not func type
	ErrInputType = errors.New("inputs are not func type")
	// ErrNilAddress means a zero address was given where code is expected
	ErrNilAddress = errors.New("nil address")
	// ErrUnhook means restoring the original bytes failed
	ErrUnhook = errors.New("failed to unhook")
	// ErrRehook means the patch could not be put back after calling the original
	ErrRehook = errors.New("failed to re-hook")
	// ErrClosed means the hook was closed or detached
	ErrClosed = errors.New("hook closed")
	// ErrUnsupportedArch means no jump template exists for this GOARCH
	ErrUnsupportedArch = errors.New("unsupported architecture")
	// ErrUnsupportedOS means the memory primitives are not available on this GOOS
	ErrUnsupportedOS = errors.New("unsupported operating system")
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	hooks = make(map[uintptr]*site)
	nop := zerolog.Nop()
	logger.Store(&nop)
}

// SetLogger routes the package's diagnostics to l.
func SetLogger(l zerolog.Logger) {
	logger.Store(&l)
}

// SetDebug is a shorthand for a debug-level console logger on stderr,
// or for silencing the package when x is false.
func SetDebug(x bool) {
	if !x {
		SetLogger(zerolog.Nop())
		return
	}
	SetLogger(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Str("component", "memhook").
		Logger())
}

func log() *zerolog.Logger {
	return logger.Load()
}

// claim registers the owner of a patch at addr.
func claim(addr uintptr, keep interface{}) error {
	lock.Lock()
	defer lock.Unlock()
	if s, ok := hooks[addr]; ok && s != nil {
		return ErrDoubleHook
	}
	hooks[addr] = &site{keep: keep}
	return nil
}

// release forgets the owner of addr unless it was detached.
func release(addr uintptr) {
	lock.Lock()
	defer lock.Unlock()
	if s, ok := hooks[addr]; ok && !s.detached {
		delete(hooks, addr)
	}
}

// pin marks the patch at addr as permanent.
func pin(addr uintptr) {
	lock.Lock()
	defer lock.Unlock()
	if s, ok := hooks[addr]; ok {
		s.detached = true
	}
}

// Hooked reports whether a live detour owns addr.
func Hooked(addr uintptr) bool {
	lock.Lock()
	defer lock.Unlock()
	_, ok := hooks[addr]
	return ok
}
