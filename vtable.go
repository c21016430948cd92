package memhook

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"
)

const ptrSize = unsafe.Sizeof(uintptr(0))

// itab mirrors the runtime layout of an interface's method table.
type itab struct {
	inter unsafe.Pointer
	typ   unsafe.Pointer
	hash  uint32
	_     [4]byte
	fun   [1]uintptr
}

// ItabSlot converts the index of a method in an interface's method set
// (sorted by name) to a slot for NewVTableHook, given an object pointer
// that addresses a non-empty interface value.
func ItabSlot(method int) int {
	return int(unsafe.Offsetof(itab{}.fun)/ptrSize) + method
}

// VTableHook replaces one slot of the method table an object points at.
// The first machine word of the object must be the table pointer, as it is
// for C++ objects and for Go interface values.
//
// A hook is created unlinked; SetHook installs it.
type VTableHook[F any] struct {
	mu       sync.Mutex
	object   uintptr
	slot     int
	saved    uintptr
	orig     F
	hooked   bool
	detached bool
	closed   bool
}

// NewVTableHook prepares a hook on slot of the table referenced by object.
// Memory is not touched until SetHook.
func NewVTableHook[F any](object uintptr, slot int) (*VTableHook[F], error) {
	if err := checkFunc[F](); err != nil {
		return nil, err
	}
	if object == 0 {
		return nil, ErrNilAddress
	}
	if slot < 0 {
		return nil, fmt.Errorf("%w: slot %d", ErrInvalidIndex, slot)
	}
	h := &VTableHook[F]{object: object, slot: slot}
	runtime.SetFinalizer(h, (*VTableHook[F]).finalize)
	return h, nil
}

// SetHook stores impl, a code address, in the slot. The value found there
// the first time is kept as the original; hooking again only swaps impl.
func (h *VTableHook[F]) SetHook(impl uintptr) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if impl == 0 {
		return ErrNilAddress
	}
	addr, err := h.slotAddr()
	if err != nil {
		return err
	}
	current, err := Read[uintptr](addr)
	if err != nil {
		return fmt.Errorf("%w: slot %d at 0x%x - %w", ErrInvalidIndex, h.slot, addr, err)
	}
	if !h.hooked {
		orig, err := MakeFunc[F](current)
		if err != nil {
			return fmt.Errorf("%w: slot %d holds 0x%x - %w", ErrInvalidIndex, h.slot, current, err)
		}
		h.saved = current
		h.orig = orig
	}
	if err := WriteValue(addr, impl); err != nil {
		return err
	}
	h.hooked = true
	log().Debug().
		Uint64("object", uint64(h.object)).
		Int("slot", h.slot).
		Uint64("original", uint64(h.saved)).
		Uint64("impl", uint64(impl)).
		Msg("vtable slot hooked")
	return nil
}

// Unhook writes the saved original back into the slot of the object's
// current table. It is a no-op when the hook is not installed.
func (h *VTableHook[F]) Unhook() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	return h.unhookLocked()
}

// IsHooked reports whether the slot currently holds the replacement.
func (h *VTableHook[F]) IsHooked() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hooked
}

// Original returns the saved slot value as a callable. The slot and the
// method's code are independent, so it may be called while hooked.
func (h *VTableHook[F]) Original() (F, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.saved == 0 {
		var zero F
		return zero, ErrNilAddress
	}
	return h.orig, nil
}

// CallOriginal runs fn with the saved original method.
func (h *VTableHook[F]) CallOriginal(fn func(orig F)) error {
	orig, err := h.Original()
	if err != nil {
		return err
	}
	fn(orig)
	return nil
}

// Detach leaves the slot as it is for the life of the process.
func (h *VTableHook[F]) Detach() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.detached = true
	runtime.SetFinalizer(h, nil)
	return nil
}

// Close restores the slot unless the hook was detached.
func (h *VTableHook[F]) Close() error {
	if h == nil || h.object == 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	runtime.SetFinalizer(h, nil)
	if h.detached {
		return nil
	}
	return h.unhookLocked()
}

func (h *VTableHook[F]) finalize() {
	if err := h.Close(); err != nil {
		log().Error().Err(err).Uint64("object", uint64(h.object)).Int("slot", h.slot).Msg("vtable slot left hooked by finalizer")
	}
}

func (h *VTableHook[F]) unhookLocked() error {
	if !h.hooked {
		return nil
	}
	addr, err := h.slotAddr()
	if err != nil {
		return err
	}
	if err := WriteValue(addr, h.saved); err != nil {
		return err
	}
	h.hooked = false
	log().Debug().Uint64("object", uint64(h.object)).Int("slot", h.slot).Msg("vtable slot restored")
	return nil
}

func (h *VTableHook[F]) slotAddr() (uintptr, error) {
	table, err := Read[uintptr](h.object)
	if err != nil {
		return 0, fmt.Errorf("%w: table pointer at 0x%x - %w", ErrInvalidIndex, h.object, err)
	}
	if table == 0 {
		return 0, fmt.Errorf("%w: object 0x%x has no table", ErrInvalidIndex, h.object)
	}
	return table + uintptr(h.slot)*ptrSize, nil
}
