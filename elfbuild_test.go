package cuckoo

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

type testSym struct {
	name  string
	value uint64
	size  uint64
	info  byte
}

func funcSym(name string, value, size uint64) testSym {
	return testSym{name: name, value: value, size: size, info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC)}
}

// testELF describes a synthetic ELF image. A nil symbol slice leaves the
// table out entirely.
type testELF struct {
	class  elf.Class
	symtab []testSym
	dynsym []testSym

	// strtabName renames .strtab so only sh_link can find it.
	strtabName string

	// extended stores the section count and name table index in
	// section 0.
	extended bool

	// badSymtabOffset points .symtab past the end of the image.
	badSymtabOffset bool

	// noStrtab leaves out .strtab and clears the .symtab link.
	noStrtab bool

	// badSymbolName points every named symbol past its string table.
	badSymbolName bool

	// badStrtabName points the name of .strtab past the section name table.
	badStrtabName bool
}

type testSection struct {
	name    string
	typ     elf.SectionType
	link    uint32
	entsize uint64
	data    []byte
	off     uint64
}

type stringTable struct {
	buf []byte
}

func (st *stringTable) add(s string) uint32 {
	if s == "" {
		return 0
	}
	if len(st.buf) == 0 {
		st.buf = []byte{0}
	}
	off := uint32(len(st.buf))
	st.buf = append(st.buf, s...)
	st.buf = append(st.buf, 0)
	return off
}

func (te testELF) is64() bool {
	return te.class != elf.ELFCLASS32
}

func (te testELF) encodeSymbols(syms []testSym, strs *stringTable) []byte {
	var buf bytes.Buffer

	// Entry 0 is always the null symbol.
	all := append([]testSym{{}}, syms...)
	for _, s := range all {
		name := strs.add(s.name)
		if te.badSymbolName && name != 0 {
			name = 0xfff0
		}
		if te.is64() {
			binary.Write(&buf, binary.LittleEndian, elf.Sym64{
				Name:  name,
				Info:  s.info,
				Shndx: 1,
				Value: s.value,
				Size:  s.size,
			})
		} else {
			binary.Write(&buf, binary.LittleEndian, elf.Sym32{
				Name:  name,
				Value: uint32(s.value),
				Size:  uint32(s.size),
				Info:  s.info,
				Shndx: 1,
			})
		}
	}
	return buf.Bytes()
}

func (te testELF) bytes() []byte {
	sections := []*testSection{
		{}, // SHN_UNDEF
		{name: ".shstrtab", typ: elf.SHT_STRTAB},
	}

	if te.symtab != nil {
		strs := &stringTable{}
		data := te.encodeSymbols(te.symtab, strs)
		name := ".strtab"
		if te.strtabName != "" {
			name = te.strtabName
		}
		var link uint32
		if !te.noStrtab {
			sections = append(sections, &testSection{name: name, typ: elf.SHT_STRTAB, data: strs.buf})
			link = uint32(len(sections) - 1)
		}
		sections = append(sections, &testSection{name: ".symtab", typ: elf.SHT_SYMTAB, link: link, data: data})
	}
	if te.dynsym != nil {
		strs := &stringTable{}
		data := te.encodeSymbols(te.dynsym, strs)
		sections = append(sections, &testSection{name: ".dynstr", typ: elf.SHT_STRTAB, data: strs.buf})
		sections = append(sections, &testSection{name: ".dynsym", typ: elf.SHT_DYNSYM, link: uint32(len(sections) - 1), data: data})
	}

	names := &stringTable{}
	nameIdx := make([]uint32, len(sections))
	for i, s := range sections {
		nameIdx[i] = names.add(s.name)
	}
	sections[1].data = names.buf

	hdrSize := uint64(binary.Size(elf.Header32{}))
	if te.is64() {
		hdrSize = uint64(binary.Size(elf.Header64{}))
	}

	var body bytes.Buffer
	for _, s := range sections[1:] {
		s.off = hdrSize + uint64(body.Len())
		body.Write(s.data)
	}
	for body.Len()%8 != 0 {
		body.WriteByte(0)
	}
	shoff := hdrSize + uint64(body.Len())

	shnum := uint16(len(sections))
	shstrndx := uint16(1)
	if te.extended {
		shnum = 0
		shstrndx = uint16(elf.SHN_XINDEX)
	}

	var out bytes.Buffer
	ident := [elf.EI_NIDENT]byte{0x7f, 'E', 'L', 'F'}
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	if te.is64() {
		ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
		binary.Write(&out, binary.LittleEndian, elf.Header64{
			Ident:     ident,
			Type:      uint16(elf.ET_EXEC),
			Machine:   uint16(elf.EM_X86_64),
			Version:   uint32(elf.EV_CURRENT),
			Shoff:     shoff,
			Ehsize:    uint16(hdrSize),
			Shentsize: uint16(binary.Size(elf.Section64{})),
			Shnum:     shnum,
			Shstrndx:  shstrndx,
		})
	} else {
		ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
		binary.Write(&out, binary.LittleEndian, elf.Header32{
			Ident:     ident,
			Type:      uint16(elf.ET_EXEC),
			Machine:   uint16(elf.EM_386),
			Version:   uint32(elf.EV_CURRENT),
			Shoff:     uint32(shoff),
			Ehsize:    uint16(hdrSize),
			Shentsize: uint16(binary.Size(elf.Section32{})),
			Shnum:     shnum,
			Shstrndx:  shstrndx,
		})
	}
	out.Write(body.Bytes())

	for i, s := range sections {
		size := uint64(len(s.data))
		link := s.link
		off := s.off
		if i == 0 && te.extended {
			size = uint64(len(sections))
			link = 1
		}
		if s.name == ".symtab" && te.badSymtabOffset {
			off = 1 << 30
		}
		name := nameIdx[i]
		if s.name == ".strtab" && te.badStrtabName {
			name = 0xfff0
		}

		if te.is64() {
			binary.Write(&out, binary.LittleEndian, elf.Section64{
				Name: name,
				Type: uint32(s.typ),
				Off:  off,
				Size: size,
				Link: link,
			})
		} else {
			binary.Write(&out, binary.LittleEndian, elf.Section32{
				Name: name,
				Type: uint32(s.typ),
				Off:  uint32(off),
				Size: uint32(size),
				Link: link,
			})
		}
	}

	return out.Bytes()
}

// writeImage writes data to a temporary file and returns its path.
func writeImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// openImage writes data to a temporary file and opens it.
func openImage(t *testing.T, data []byte) *Image {
	t.Helper()
	img, err := Open(writeImage(t, data))
	require.NoError(t, err)
	t.Cleanup(func() { img.Close() })
	return img
}

func parseImage(t *testing.T, te testELF) *Directory {
	t.Helper()
	dir, err := ParseSymbols(openImage(t, te.bytes()))
	require.NoError(t, err)
	return dir
}

// requireELFHost skips the test when the running executable is not ELF.
func requireELFHost(t *testing.T) {
	t.Helper()
	switch runtime.GOOS {
	case "linux", "android", "freebsd", "netbsd", "openbsd", "dragonfly", "solaris", "illumos":
	default:
		t.Skipf("executables on %s are not ELF", runtime.GOOS)
	}
}

// requireSymtab skips the test when the running executable has no static
// symbol table, as with binaries linked with -s.
func requireSymtab(t *testing.T) *Directory {
	t.Helper()
	requireELFHost(t)

	dir, err := selfDirectory()
	if errors.Is(err, ErrFormat) || (err == nil && len(dir.Symbols(SymTab)) == 0) {
		t.Skip("executable has no static symbol table")
	}
	require.NoError(t, err)
	return dir
}
