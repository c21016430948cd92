package memhook

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// pageSize is replaced by the OS value at init where one is available.
var pageSize uintptr = 4096

var restoreProtection atomic.Bool

// SetRestoreProtection makes Write put back the protection each page had
// before it was opened for writing. By default pages are left
// read/write/execute once written.
func SetRestoreProtection(on bool) {
	restoreProtection.Store(on)
}

// PageSize returns the page size used for protection changes.
func PageSize() uintptr {
	return pageSize
}

// Read copies sizeof(T) bytes from addr in the current process.
// T should not contain Go pointers. A partial transfer is an error.
func Read[T any](addr uintptr) (T, error) {
	var v T
	size := unsafe.Sizeof(v)
	if size == 0 {
		return v, nil
	}
	err := transfer(addr, unsafe.Slice((*byte)(unsafe.Pointer(&v)), size), false)
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// ReadBytes copies n bytes starting at addr.
func ReadBytes(addr uintptr, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d at 0x%x", ErrAccess, n, addr)
	}
	buf := make([]byte, n)
	if err := transfer(addr, buf, false); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadRegion copies the whole of r.
func ReadRegion(r Region) ([]byte, error) {
	return ReadBytes(r.Start, int(r.Size()))
}

// Write makes every page spanned by [addr, addr+len(data)) readable,
// writable and executable, then copies data to addr.
func Write(addr uintptr, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	size := uintptr(len(data))
	var saved []pageProt
	if restoreProtection.Load() {
		saved = savedProtections(addr, size)
	}
	if err := protectPages(addr, size); err != nil {
		return err
	}
	err := transfer(addr, data, true)
	if len(saved) > 0 {
		if rerr := restorePages(saved); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}

// WriteValue writes the in-memory representation of v to addr.
func WriteValue[T any](addr uintptr, v T) error {
	size := unsafe.Sizeof(v)
	if size == 0 {
		return nil
	}
	return Write(addr, unsafe.Slice((*byte)(unsafe.Pointer(&v)), size))
}

// pageSpan rounds [addr, addr+size) out to whole pages.
func pageSpan(addr, size uintptr) (start, length uintptr) {
	start = pageSize * (addr / pageSize)
	length = pageSize * ((addr + size + pageSize - 1 - start) / pageSize)
	return
}

type pageProt struct {
	page  uintptr
	perms string
}

// savedProtections maps each page of the span to the permissions of the
// region holding it. It returns nil if any page is not found.
func savedProtections(addr, size uintptr) []pageProt {
	regions, err := Regions()
	if err != nil {
		log().Debug().Err(err).Msg("cannot read memory map, protection will not be restored")
		return nil
	}
	start, length := pageSpan(addr, size)
	var out []pageProt
	for p := start; p < start+length; p += pageSize {
		r, ok := regionContaining(regions, p)
		if !ok {
			log().Debug().Uint64("page", uint64(p)).Msg("page not mapped, protection will not be restored")
			return nil
		}
		out = append(out, pageProt{page: p, perms: r.Perms})
	}
	return out
}

// makeSlice views size bytes at addr, a page start outside the Go heap.
func makeSlice(addr, size uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(nil), addr)), size)
}
