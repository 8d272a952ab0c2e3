package cuckoo

// Encoder synthesizes the jump stub for one architecture.
type Encoder interface {
	// Len is the number of bytes Encode returns.
	Len() int

	// Encode returns machine code that, placed at original, transfers
	// control to replacement. The result depends only on its arguments.
	Encode(original, replacement Addr) []byte

	// Disassemble renders code, assumed to be loaded at pc, one
	// instruction per line.
	Disassemble(code []byte, pc Addr) (string, error)
}

// HostEncoder returns the encoder for the architecture this package was
// built for. Architectures without an encoder fail to build.
func HostEncoder() Encoder {
	return hostEncoder
}

// StubLen returns the stub length on the host architecture, which is also
// the minimum size of a function that PatchBySymbol accepts.
func StubLen() int {
	return hostEncoder.Len()
}

// EncoderFor returns the encoder for a GOARCH value, or nil if there is none.
func EncoderFor(arch string) Encoder {
	switch arch {
	case "amd64":
		return AMD64{}
	case "386":
		return I386{}
	case "arm64":
		return ARM64{}
	}
	return nil
}
