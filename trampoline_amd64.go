package memhook

import (
	"github.com/rs/zerolog"
	"golang.org/x/arch/x86/x86asm"
)

// PatchSize is the number of bytes overwritten at a detoured entry.
const PatchSize = 12

// assembleJump builds the entry patch for a hook whose funcval lives at
// cell. The hook is entered with RDX holding its funcval, which is what
// Go closures expect in the context register.
func assembleJump(cell uintptr) ([]byte, error) {
	return []byte{
		0x48, 0xba, // MOV RDX, cell
		byte(cell), byte(cell >> 8), // .
		byte(cell >> 16), byte(cell >> 24), // .
		byte(cell >> 32), byte(cell >> 40), // .
		byte(cell >> 48), byte(cell >> 56), // .
		0xff, 0x22, // JMP [RDX]
	}, nil
}

type info struct {
	// bytes taken by the whole instructions covering the patch
	length int
	// false when any of them addresses memory relative to RIP
	relocatable bool
	insts       []string
}

// inspect decodes the instructions a patch of size bytes would overwrite.
func inspect(src []byte, size int) (info, error) {
	var inf info
	inf.relocatable = true
	for inf.length < size && inf.length < len(src) {
		inst, err := x86asm.Decode(src[inf.length:], 64)
		if err != nil {
			return inf, err
		}
		// a cut-off instruction comes back as a lone prefix without an opcode
		if inst.Op == 0 {
			return inf, x86asm.ErrTruncated
		}
		inf.insts = append(inf.insts, x86asm.GoSyntax(inst, 0, nil))
		inf.relocatable = inf.relocatable && relocatable(inst)
		inf.length += inst.Len
	}
	return inf, nil
}

func relocatable(inst x86asm.Inst) bool {
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		if mem, ok := a.(x86asm.Mem); ok && mem.Base == x86asm.RIP {
			return false
		}
		if _, ok := a.(x86asm.Rel); ok {
			return false
		}
	}
	return true
}

// describePatchSite logs what a patch at addr is about to replace. The patch
// never relocates these instructions, so the report is informational.
func describePatchSite(addr uintptr, original []byte) {
	l := log()
	if l.GetLevel() > zerolog.DebugLevel {
		return
	}
	inf, err := inspect(original, PatchSize)
	if err != nil {
		l.Debug().Err(err).Uint64("addr", uint64(addr)).Msg("cannot decode patch site")
		return
	}
	ev := l.Debug().
		Uint64("addr", uint64(addr)).
		Strs("instructions", inf.insts).
		Int("covered", inf.length)
	if inf.length != PatchSize {
		ev = ev.Bool("splits_instruction", true)
	}
	if !inf.relocatable {
		ev = ev.Bool("rip_relative", true)
	}
	ev.Msg("patch site")
}
