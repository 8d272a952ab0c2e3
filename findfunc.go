package cuckoo

import (
	"bytes"
	"debug/elf"
	"fmt"
	"runtime"
	"sort"
	"unsafe"
)

// The types below mirror the leading fields of the runtime's own. Only the
// fields read here need to line up; the real structs continue past them.

type funcInfo struct {
	*_func
	datap *moduledata
}

type _func struct {
	entryOff uint32 // start pc, as offset from moduledata.text
}

type moduledata struct {
	pcHeader     unsafe.Pointer
	funcnametab  []byte
	cutab        []uint32
	filetab      []byte
	pctab        []byte
	pclntable    []byte
	ftab         []functab
	findfunctab  uintptr
	minpc, maxpc uintptr

	text, etext uintptr
}

type functab struct {
	entryoff uint32 // relative to moduledata.text
	funcoff  uint32
}

//go:linkname findfunc runtime.findfunc
func findfunc(pc uintptr) funcInfo

// runtimeSymbolAt describes the function that starts at entry using the
// runtime's function table, for executables built without a symbol table.
// The size runs to the entry of the next function, less the alignment fill
// the linker put in between.
func runtimeSymbolAt(entry Addr) (Symbol, error) {
	fn := runtime.FuncForPC(uintptr(entry))
	if fn == nil || fn.Entry() != uintptr(entry) {
		return Symbol{}, &Error{Kind: KindNotFound, Op: "findfunc", Err: fmt.Errorf("no function starts at %v", entry)}
	}

	info := findfunc(uintptr(entry))
	if info._func == nil || info.datap == nil {
		return Symbol{}, &Error{Kind: KindNotFound, Op: "findfunc", Name: fn.Name(), Err: fmt.Errorf("not in the function table")}
	}
	datap := info.datap

	// ftab is ordered by entry offset and ends with an entry for etext.
	off := uint32(uintptr(entry) - datap.text)
	end := datap.etext
	i := sort.Search(len(datap.ftab), func(i int) bool {
		return datap.ftab[i].entryoff > off
	})
	if i < len(datap.ftab) {
		if next := datap.text + uintptr(datap.ftab[i].entryoff); next < end {
			end = next
		}
	}

	code := trimPadding(entry.bytes(int(end-uintptr(entry))), codePadding)

	return Symbol{
		Name: fn.Name(),
		Addr: entry,
		Size: uint64(len(code)),
		Type: elf.STT_FUNC,
	}, nil
}

// trimPadding drops whole repetitions of pad from the end of code.
func trimPadding(code, pad []byte) []byte {
	if len(pad) == 0 {
		return code
	}
	for bytes.HasSuffix(code, pad) {
		code = code[:len(code)-len(pad)]
	}
	return code
}
