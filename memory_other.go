//go:build !linux

package memhook

func transfer(addr uintptr, buf []byte, write bool) error {
	return ErrUnsupportedOS
}

func protectPages(addr, size uintptr) error {
	return ErrUnsupportedOS
}

func restorePages(pages []pageProt) error {
	return ErrUnsupportedOS
}
