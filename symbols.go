package cuckoo

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
)

// Table names one of the two symbol categories of an ELF image.
type Table int

const (
	// SymTab is the static symbol table (.symtab).
	SymTab Table = iota
	// DynSym is the dynamic symbol table (.dynsym).
	DynSym
)

func (t Table) String() string {
	switch t {
	case SymTab:
		return "symtab"
	case DynSym:
		return "dynsym"
	default:
		return fmt.Sprintf("table(%d)", int(t))
	}
}

// ParseTable converts "symtab" or "dynsym" to a Table.
func ParseTable(s string) (Table, error) {
	switch s {
	case "symtab":
		return SymTab, nil
	case "dynsym":
		return DynSym, nil
	}
	return 0, fmt.Errorf("unknown symbol table %q", s)
}

// Symbol is a named function or object in an image. Size is zero when the
// image did not record one.
type Symbol struct {
	Name string
	Addr Addr
	Size uint64
	Type elf.SymType
}

func (s Symbol) String() string {
	return fmt.Sprintf("%s(addr=%v,size=%dB)", s.Name, s.Addr, s.Size)
}

// Directory holds the symbols of an image, in the order they appear in the
// file. It does not refer to the image's mapping and stays usable after the
// image is closed.
type Directory struct {
	tables   map[Table][]Symbol
	index    map[Table]map[string]int
	fileType elf.Type
}

// ParseSymbols reads the symbol tables of img.
func ParseSymbols(img *Image) (*Directory, error) {
	d := &Directory{}
	if err := d.Parse(img); err != nil {
		return nil, err
	}
	return d, nil
}

// Parse replaces the contents of d with the symbols of img. Having only one
// of the two tables is fine; having neither is a format error. A table whose
// string table cannot be found is skipped.
func (d *Directory) Parse(img *Image) error {
	if !img.IsOpen() {
		return &Error{Kind: KindIO, Op: "parse", Err: fmt.Errorf("image is not open")}
	}

	err := d.parse(img.view())
	if err != nil {
		if e, ok := err.(*Error); ok && e.Path == "" {
			e.Path = img.Path()
		}
		return err
	}

	logger.Debug().
		Str("path", img.Path()).
		Int("symtab", len(d.tables[SymTab])).
		Int("dynsym", len(d.tables[DynSym])).
		Msg("symbols parsed")

	return nil
}

func (d *Directory) parse(v view) error {
	h, err := readHeader(v)
	if err != nil {
		return err
	}

	sections := make([]sectionHeader, 0, h.shnum)
	for i := uint64(0); i < h.shnum; i++ {
		sh, err := h.section(v, i)
		if err != nil {
			return err
		}
		sections = append(sections, sh)
	}

	var names *sectionHeader
	if h.shstrndx != uint64(elf.SHN_UNDEF) && h.shstrndx < uint64(len(sections)) {
		names = &sections[h.shstrndx]
		if _, err := v.slice(names.off, names.size); err != nil {
			return formatErrorf("section name table: %w", err)
		}
	}

	var symtab, dynsym, strtab, dynstr *sectionHeader
	for i := range sections {
		sh := &sections[i]

		switch sh.typ {
		case elf.SHT_SYMTAB:
			if symtab == nil {
				symtab = sh
			}
		case elf.SHT_DYNSYM:
			if dynsym == nil {
				dynsym = sh
			}
		case elf.SHT_STRTAB:
			if names == nil || sh.name == 0 {
				continue
			}
			name, err := v.cstring(names.off+uint64(sh.name), names.off+names.size)
			if err != nil {
				return formatErrorf("name of section %d: %w", i, err)
			}
			switch name {
			case ".strtab":
				strtab = sh
			case ".dynstr":
				dynstr = sh
			}
		}
	}

	tables := make(map[Table][]Symbol, 2)
	for _, tab := range [...]struct {
		table     Table
		sec, strs *sectionHeader
	}{
		{SymTab, symtab, strtab},
		{DynSym, dynsym, dynstr},
	} {
		if tab.sec == nil {
			continue
		}
		syms, err := extractSymbols(v, h, tab.sec, linkedStrings(sections, tab.sec, tab.strs))
		if errors.Is(err, errNoStrings) {
			logger.Debug().
				Stringer("table", tab.table).
				Stringer("section", tab.sec).
				Msg("no string table, symbol table skipped")
			continue
		}
		if err != nil {
			return err
		}
		tables[tab.table] = syms
	}

	if len(tables) == 0 {
		return &Error{Kind: KindFormat, Op: "parse", Err: fmt.Errorf("no symbol table found")}
	}

	d.tables = tables
	d.index = make(map[Table]map[string]int, len(tables))
	for t, syms := range tables {
		idx := make(map[string]int, len(syms))
		for i, s := range syms {
			if _, ok := idx[s.Name]; !ok {
				idx[s.Name] = i
			}
		}
		d.index[t] = idx
	}
	d.fileType = h.typ

	return nil
}

// linkedStrings returns the string table for sym: the one found by its
// conventional name, or else the one sym links to.
func linkedStrings(sections []sectionHeader, sym, byName *sectionHeader) *sectionHeader {
	if byName != nil {
		return byName
	}
	if link := uint64(sym.link); link != 0 && link < uint64(len(sections)) && sections[link].typ == elf.SHT_STRTAB {
		return &sections[link]
	}
	return nil
}

var errNoStrings = errors.New("no string table")

// extractSymbols copies the usable entries of a symbol table section.
// Entries without a name or address, and section or file entries, are not
// call targets and are dropped. A table with entries but no string table
// returns errNoStrings.
func extractSymbols(v view, h *elfHeader, sec, strs *sectionHeader) ([]Symbol, error) {
	entSize := h.symEntSize()
	count := sec.size / entSize

	data, err := v.slice(sec.off, count*entSize)
	if err != nil {
		return nil, formatErrorf("symbol table %v: %w", sec, err)
	}

	if count > 0 && strs == nil {
		return nil, errNoStrings
	}
	if strs != nil {
		if _, err := v.slice(strs.off, strs.size); err != nil {
			return nil, formatErrorf("string table %v: %w", strs, err)
		}
	}

	syms := make([]Symbol, 0, count)
	for i := uint64(0); i < count; i++ {
		raw := h.decodeSymbol(data[i*entSize : (i+1)*entSize])

		typ := elf.ST_TYPE(raw.info)
		if raw.name == 0 || raw.value == 0 || typ == elf.STT_SECTION || typ == elf.STT_FILE {
			continue
		}

		name, err := v.cstring(strs.off+uint64(raw.name), strs.off+strs.size)
		if err != nil {
			return nil, formatErrorf("name of symbol %d: %w", i, err)
		}
		if name == "" {
			continue
		}

		syms = append(syms, Symbol{
			Name: name,
			Addr: Addr(raw.value),
			Size: raw.size,
			Type: typ,
		})
	}

	return syms, nil
}

// Lookup returns the first symbol called name, searching the dynamic table
// before the static one. Names are compared exactly.
func (d *Directory) Lookup(name string) (Symbol, error) {
	for _, t := range [...]Table{DynSym, SymTab} {
		if i, ok := d.index[t][name]; ok {
			return d.tables[t][i], nil
		}
	}
	return Symbol{}, &Error{Kind: KindNotFound, Op: "lookup", Name: name}
}

// Symbols returns a copy of the symbols in table t.
func (d *Directory) Symbols(t Table) []Symbol {
	return append([]Symbol(nil), d.tables[t]...)
}

// Len returns the number of symbols in both tables.
func (d *Directory) Len() int {
	return len(d.tables[SymTab]) + len(d.tables[DynSym])
}

// FileType returns the ELF file type of the parsed image, such as ET_EXEC
// or ET_DYN for position-independent executables.
func (d *Directory) FileType() elf.Type {
	return d.fileType
}

// Dump writes every symbol to w, static table first, one per line.
func (d *Directory) Dump(w io.Writer) error {
	for _, t := range [...]Table{SymTab, DynSym} {
		for _, s := range d.tables[t] {
			if _, err := fmt.Fprintln(w, s); err != nil {
				return err
			}
		}
	}
	return nil
}
