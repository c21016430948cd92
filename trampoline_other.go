//go:build !amd64

package memhook

// PatchSize is the number of bytes overwritten at a detoured entry.
const PatchSize = 12

func assembleJump(cell uintptr) ([]byte, error) {
	return nil, ErrUnsupportedArch
}

func describePatchSite(addr uintptr, original []byte) {}
