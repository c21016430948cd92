package memhook

import (
	"fmt"
	"runtime"
	"sync"
)

// Detour redirects a function to a hook by overwriting the function's entry
// with a PatchSize-byte jump. No relocated copy of the overwritten
// instructions is kept, so CallOriginal briefly restores the entry instead.
//
// All methods of one Detour are serialized. A callback passed to
// CallOriginal must not call back into the same Detour.
//
// The zero value is an inert sentinel: Close on it does nothing.
//
// The package keeps the hook value reachable while the jump points at it.
// A hook that captures its own Detour therefore keeps the Detour alive,
// the finalizer never runs, and Close must be called explicitly.
type Detour[F any] struct {
	mu       sync.Mutex
	original uintptr
	hook     F
	cell     uintptr
	orig     F
	saved    [PatchSize]byte
	hooked   bool
	detached bool
	closed   bool
}

// NewDetour hooks the function target so that calls to it run hook.
// target must be a Go function (not a closure) that the compiler did not
// inline at the call sites of interest; hook may be any func value of the
// same type, including a closure.
func NewDetour[F any](target, hook F) (*Detour[F], error) {
	if err := checkFunc[F](); err != nil {
		return nil, err
	}
	addr, err := FuncPC(target)
	if err != nil {
		return nil, err
	}
	return NewDetourAt(addr, hook)
}

// NewDetourAt hooks the code at original, which must have the Go ABI
// described by F. It either returns an installed detour or leaves memory
// untouched.
func NewDetourAt[F any](original uintptr, hook F) (*Detour[F], error) {
	if err := checkFunc[F](); err != nil {
		return nil, err
	}
	if original == 0 {
		return nil, ErrNilAddress
	}
	cell := funcCell(hook)
	if cell == 0 {
		return nil, ErrNilAddress
	}
	if _, err := assembleJump(cell); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConstruction, err)
	}
	orig, err := MakeFunc[F](original)
	if err != nil {
		return nil, err
	}
	if err := claim(original, hook); err != nil {
		return nil, err
	}

	d := &Detour[F]{
		original: original,
		hook:     hook,
		cell:     cell,
		orig:     orig,
	}
	if err := d.save(); err != nil {
		release(original)
		return nil, fmt.Errorf("%w: save entry of 0x%x - %w", ErrConstruction, original, err)
	}
	describePatchSite(original, d.saved[:])
	if err := d.hookLocked(); err != nil {
		// a short write may have left part of the jump behind
		if rerr := Write(original, d.saved[:]); rerr != nil {
			log().Error().Err(rerr).Uint64("addr", uint64(original)).Msg("cannot roll back partial patch")
			pin(original)
		} else {
			release(original)
		}
		return nil, fmt.Errorf("%w: install at 0x%x - %w", ErrConstruction, original, err)
	}
	runtime.SetFinalizer(d, (*Detour[F]).finalize)
	return d, nil
}

// Address returns the patched entry address.
func (d *Detour[F]) Address() uintptr {
	return d.original
}

// IsHooked reports whether the jump is currently installed.
func (d *Detour[F]) IsHooked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hooked
}

// Hook (re)installs the jump to the hook.
func (d *Detour[F]) Hook() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.hookLocked()
}

// Unhook puts the original entry bytes back. Unhooking an unhooked detour
// succeeds without touching memory.
func (d *Detour[F]) Unhook() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.unhookLocked()
}

// CallOriginal hands fn the original function while the entry is restored,
// then installs the jump. fn typically captures the results it needs.
// The detour is hooked afterwards even if it was not before.
func (d *Detour[F]) CallOriginal(fn func(orig F)) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if uerr := d.unhookLocked(); uerr != nil {
		return fmt.Errorf("%w: %w", ErrUnhook, uerr)
	}
	defer func() {
		if herr := d.hookLocked(); herr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrRehook, herr)
		}
	}()
	fn(d.orig)
	return nil
}

// Detach gives up ownership: the patch stays in whatever state it is in for
// the life of the process, and Close no longer restores it.
func (d *Detour[F]) Detach() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.detached = true
	pin(d.original)
	runtime.SetFinalizer(d, nil)
	return nil
}

// Close unhooks and releases the entry address for other detours.
func (d *Detour[F]) Close() error {
	if d == nil || d.original == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	runtime.SetFinalizer(d, nil)
	if d.detached {
		return nil
	}
	if err := d.unhookLocked(); err != nil {
		// the jump is still in place, so its target must stay reachable
		pin(d.original)
		return err
	}
	release(d.original)
	return nil
}

func (d *Detour[F]) finalize() {
	if err := d.Close(); err != nil {
		log().Error().Err(err).Uint64("addr", uint64(d.original)).Msg("detour left installed by finalizer")
	}
}

func (d *Detour[F]) save() error {
	saved, err := Read[[PatchSize]byte](d.original)
	if err != nil {
		return err
	}
	d.saved = saved
	return nil
}

func (d *Detour[F]) hookLocked() error {
	jump, err := assembleJump(d.cell)
	if err != nil {
		return err
	}
	if err := Write(d.original, jump); err != nil {
		return err
	}
	d.hooked = true
	log().Debug().
		Uint64("addr", uint64(d.original)).
		Uint64("cell", uint64(d.cell)).
		Msg("detour hooked")
	return nil
}

func (d *Detour[F]) unhookLocked() error {
	if !d.hooked {
		return nil
	}
	if err := Write(d.original, d.saved[:]); err != nil {
		return err
	}
	d.hooked = false
	log().Debug().Uint64("addr", uint64(d.original)).Msg("detour unhooked")
	return nil
}
