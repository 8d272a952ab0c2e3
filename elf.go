package cuckoo

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
)

// elfHeader holds the ELF header fields needed to walk the section table,
// normalized across 32 and 64-bit classes.
type elfHeader struct {
	class     elf.Class
	order     binary.ByteOrder
	typ       elf.Type
	shoff     uint64
	shentsize uint64
	shnum     uint64
	shstrndx  uint64
}

type sectionHeader struct {
	name uint32
	typ  elf.SectionType
	link uint32
	off  uint64
	size uint64
}

func readHeader(v view) (*elfHeader, error) {
	ident, err := v.slice(0, elf.EI_NIDENT)
	if err != nil {
		return nil, formatErrorf("reading ELF identification: %w", err)
	}
	if !bytes.HasPrefix(ident, []byte(elf.ELFMAG)) {
		return nil, formatErrorf("bad ELF magic %x", ident[:4])
	}

	h := &elfHeader{class: elf.Class(ident[elf.EI_CLASS])}

	switch elf.Data(ident[elf.EI_DATA]) {
	case elf.ELFDATA2LSB:
		h.order = binary.LittleEndian
	case elf.ELFDATA2MSB:
		h.order = binary.BigEndian
	default:
		return nil, formatErrorf("unknown ELF data encoding %d", ident[elf.EI_DATA])
	}

	var minEntSize uint64
	switch h.class {
	case elf.ELFCLASS64:
		var hdr elf.Header64
		if err := v.read(0, h.order, &hdr); err != nil {
			return nil, formatErrorf("reading ELF header: %w", err)
		}
		h.typ = elf.Type(hdr.Type)
		h.shoff = hdr.Shoff
		h.shentsize = uint64(hdr.Shentsize)
		h.shnum = uint64(hdr.Shnum)
		h.shstrndx = uint64(hdr.Shstrndx)
		minEntSize = uint64(binary.Size(elf.Section64{}))
	case elf.ELFCLASS32:
		var hdr elf.Header32
		if err := v.read(0, h.order, &hdr); err != nil {
			return nil, formatErrorf("reading ELF header: %w", err)
		}
		h.typ = elf.Type(hdr.Type)
		h.shoff = uint64(hdr.Shoff)
		h.shentsize = uint64(hdr.Shentsize)
		h.shnum = uint64(hdr.Shnum)
		h.shstrndx = uint64(hdr.Shstrndx)
		minEntSize = uint64(binary.Size(elf.Section32{}))
	default:
		return nil, formatErrorf("unknown ELF class %d", ident[elf.EI_CLASS])
	}

	if h.shoff == 0 {
		// No section header table at all.
		h.shnum = 0
		return h, nil
	}
	if h.shentsize < minEntSize {
		return nil, formatErrorf("section header entry size %d smaller than %d", h.shentsize, minEntSize)
	}

	// Extended numbering keeps the real counts in section 0.
	if h.shnum == 0 || h.shstrndx == uint64(elf.SHN_XINDEX) {
		s0, err := h.section(v, 0)
		if err != nil {
			return nil, err
		}
		if h.shnum == 0 {
			h.shnum = s0.size
		}
		if h.shstrndx == uint64(elf.SHN_XINDEX) {
			h.shstrndx = uint64(s0.link)
		}
	}

	if h.shnum > uint64(len(v))/h.shentsize {
		return nil, formatErrorf("%d section headers do not fit in image", h.shnum)
	}
	if _, err := v.slice(h.shoff, h.shnum*h.shentsize); err != nil {
		return nil, formatErrorf("section header table: %w", err)
	}

	return h, nil
}

// section reads section header i.
func (h *elfHeader) section(v view, i uint64) (sectionHeader, error) {
	off := h.shoff + i*h.shentsize
	if off < h.shoff {
		return sectionHeader{}, formatErrorf("section header %d offset overflows", i)
	}

	if h.class == elf.ELFCLASS64 {
		var s elf.Section64
		if err := v.read(off, h.order, &s); err != nil {
			return sectionHeader{}, formatErrorf("section header %d: %w", i, err)
		}
		return sectionHeader{
			name: s.Name,
			typ:  elf.SectionType(s.Type),
			link: s.Link,
			off:  s.Off,
			size: s.Size,
		}, nil
	}

	var s elf.Section32
	if err := v.read(off, h.order, &s); err != nil {
		return sectionHeader{}, formatErrorf("section header %d: %w", i, err)
	}
	return sectionHeader{
		name: s.Name,
		typ:  elf.SectionType(s.Type),
		link: s.Link,
		off:  uint64(s.Off),
		size: uint64(s.Size),
	}, nil
}

// rawSymbol is one symbol table entry before filtering.
type rawSymbol struct {
	name  uint32
	info  byte
	value uint64
	size  uint64
}

func (h *elfHeader) symEntSize() uint64 {
	if h.class == elf.ELFCLASS64 {
		return elf.Sym64Size
	}
	return elf.Sym32Size
}

// decodeSymbol decodes one entry of symEntSize bytes.
func (h *elfHeader) decodeSymbol(b []byte) rawSymbol {
	if h.class == elf.ELFCLASS64 {
		return rawSymbol{
			name:  h.order.Uint32(b[0:4]),
			info:  b[4],
			value: h.order.Uint64(b[8:16]),
			size:  h.order.Uint64(b[16:24]),
		}
	}
	return rawSymbol{
		name:  h.order.Uint32(b[0:4]),
		value: uint64(h.order.Uint32(b[4:8])),
		size:  uint64(h.order.Uint32(b[8:12])),
		info:  b[12],
	}
}

func (s sectionHeader) String() string {
	return fmt.Sprintf("%v at %#x (%d bytes)", s.typ, s.off, s.size)
}
