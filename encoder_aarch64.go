package cuckoo

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/arch/arm64/arm64asm"
)

const (
	// LDR (literal), 64-bit:
	// --------------------------------------
	// | 01011000 | 19 bit word offset | Rt |
	// --------------------------------------
	_LDRlit = uint32(0x58 << 24)

	// BR:
	// ----------------------------------------
	// | 1101011000011111000000 | Rn | 00000 |
	// ----------------------------------------
	_BR = uint32(0xd61f0000)

	// R17 (IP1) is scratch in both the Go and the platform calling
	// conventions.
	registerX17 = 17
)

// ARM64 encodes a 16-byte absolute jump through a literal:
//
//	LDR X17, 8(PC)
//	BR X17
//	.quad replacement
//
// B has a range of 128MiB, which the replacement may be outside of.
type ARM64 struct{}

func (ARM64) Len() int { return 16 }

func (ARM64) Encode(original, replacement Addr) []byte {
	buf := make([]byte, 16)

	// The literal is two instructions (8 bytes) ahead of the LDR.
	binary.LittleEndian.PutUint32(buf[0:], _LDRlit|(8>>2)<<5|registerX17)
	binary.LittleEndian.PutUint32(buf[4:], _BR|registerX17<<5)
	binary.LittleEndian.PutUint64(buf[8:], uint64(replacement))

	return buf
}

func (ARM64) Disassemble(code []byte, pc Addr) (string, error) {
	var buf bytes.Buffer

	for i := 0; i < len(code)&^3; i += 4 {
		var asm string
		instruction, err := arm64asm.Decode(code[i:])
		if err == nil {
			asm = arm64asm.GoSyntax(instruction, uint64(pc)+uint64(i), nil, nil)
		} else {
			asm = "?"
		}
		fmt.Fprintf(&buf, "0x%08x\t%-24s\t%s\n", uintptr(pc)+uintptr(i), hex.EncodeToString(code[i:i+4]), asm)
	}

	return buf.String(), nil
}
