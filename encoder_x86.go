package cuckoo

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

const (
	opcodeJMP    = 0xe9 // JMP rel32
	opcodeMOVimm = 0xb8 // MOV imm, r (+ register number)
	opcodeJMPrm  = 0xff // JMP r/m, with /4 in ModRM.reg

	regModeDirect = 3
	registerDX    = 2
)

// AMD64 encodes a 12-byte absolute jump:
//
//	MOVQ $replacement, DX
//	JMP DX
//
// DX carries the closure context in Go's calling convention. At the entry of
// an ordinary function nothing reads it, so it is free to clobber.
type AMD64 struct{}

func (AMD64) Len() int { return 12 }

func (AMD64) Encode(original, replacement Addr) []byte {
	buf := make([]byte, 12)

	buf[0] = byte(x86asm.PrefixREX) | byte(x86asm.PrefixREXW)
	buf[1] = opcodeMOVimm + registerDX
	binary.LittleEndian.PutUint64(buf[2:], uint64(replacement))

	buf[10] = opcodeJMPrm
	buf[11] = regModeDirect<<6 | 4<<3 | registerDX

	return buf
}

func (AMD64) Disassemble(code []byte, pc Addr) (string, error) {
	return disassembleX86(code, pc, 64)
}

// I386 encodes a 5-byte relative jump. The displacement is measured from the
// end of the instruction.
type I386 struct{}

func (I386) Len() int { return 5 }

func (I386) Encode(original, replacement Addr) []byte {
	const instructionSize = 5 // 1 byte opcode + 4 byte address

	buf := make([]byte, instructionSize)

	src := uint32(original) + instructionSize
	buf[0] = opcodeJMP
	binary.LittleEndian.PutUint32(buf[1:], uint32(replacement)-src)

	return buf
}

func (I386) Disassemble(code []byte, pc Addr) (string, error) {
	return disassembleX86(code, pc, 32)
}

func disassembleX86(code []byte, pc Addr, mode int) (string, error) {
	var buf bytes.Buffer

	for i := 0; i < len(code); {
		instruction, err := x86asm.Decode(code[i:], mode)
		if err != nil {
			return "", fmt.Errorf("decode error at offset %d: %w", i, err)
		}
		text := x86asm.GoSyntax(instruction, uint64(pc)+uint64(i), nil)
		fmt.Fprintf(&buf, "0x%08x\t%-24s\t%s\n", uintptr(pc)+uintptr(i), hex.EncodeToString(code[i:i+instruction.Len]), text)

		i += instruction.Len
	}

	return buf.String(), nil
}
