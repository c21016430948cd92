//go:build linux

package memhook

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func init() {
	if ps := unix.Getpagesize(); ps > 0 {
		pageSize = uintptr(ps)
	}
}

// transfer moves len(buf) bytes between buf and addr using the cross-process
// vector I/O calls aimed at our own pid. Anything short of a full transfer
// fails.
func transfer(addr uintptr, buf []byte, write bool) error {
	if len(buf) == 0 {
		return nil
	}
	if addr == 0 {
		return fmt.Errorf("%w: address 0", ErrAccess)
	}
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: addr, Len: len(buf)}}

	op := "read"
	var (
		n   int
		err error
	)
	if write {
		op = "write"
		n, err = unix.ProcessVMWritev(os.Getpid(), local, remote, 0)
	} else {
		n, err = unix.ProcessVMReadv(os.Getpid(), local, remote, 0)
	}
	if err != nil {
		return fmt.Errorf("%w: %s of %d bytes at 0x%x - %v", ErrAccess, op, len(buf), addr, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: short %s at 0x%x - %d of %d bytes", ErrAccess, op, addr, n, len(buf))
	}
	return nil
}

func protectPages(addr, size uintptr) error {
	start, length := pageSpan(addr, size)
	for i := uintptr(0); i < length; i += pageSize {
		data := makeSlice(start+i, pageSize)
		err := unix.Mprotect(data, unix.PROT_EXEC|unix.PROT_READ|unix.PROT_WRITE)
		if err != nil {
			return fmt.Errorf("%w: page 0x%x - %v", ErrProtection, start+i, err)
		}
	}
	log().Debug().
		Uint64("start", uint64(start)).
		Uint64("length", uint64(length)).
		Msg("pages opened rwx")
	return nil
}

func restorePages(pages []pageProt) error {
	for _, p := range pages {
		err := unix.Mprotect(makeSlice(p.page, pageSize), permsToProt(p.perms))
		if err != nil {
			return fmt.Errorf("%w: restore page 0x%x to %s - %v", ErrProtection, p.page, p.perms, err)
		}
	}
	return nil
}

func permsToProt(perms string) int {
	prot := unix.PROT_NONE
	if len(perms) < 3 {
		return prot
	}
	if perms[0] == 'r' {
		prot |= unix.PROT_READ
	}
	if perms[1] == 'w' {
		prot |= unix.PROT_WRITE
	}
	if perms[2] == 'x' {
		prot |= unix.PROT_EXEC
	}
	return prot
}
