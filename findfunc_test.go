package cuckoo

import (
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeSymbolAt(t *testing.T) {
	assert := assert.New(t)

	entry, err := FuncAddr(multipleReturns)
	require.NoError(t, err)

	sym, err := runtimeSymbolAt(entry)
	require.NoError(t, err)

	assert.Equal(funcName(multipleReturns), sym.Name)
	assert.Equal(entry, sym.Addr)
	assert.Equal(elf.STT_FUNC, sym.Type)
	assert.GreaterOrEqual(sym.Size, uint64(StubLen()))
}

func TestRuntimeSymbolAt_EmptyFunction(t *testing.T) {
	skipUnderCoverage(t)

	entry, err := FuncAddr(emptyTarget)
	require.NoError(t, err)

	sym, err := runtimeSymbolAt(entry)
	require.NoError(t, err)

	assert.NotZero(t, sym.Size)
	assert.Less(t, sym.Size, uint64(StubLen()))
}

func TestRuntimeSymbolAt_NotAnEntry(t *testing.T) {
	entry, err := FuncAddr(multipleReturns)
	require.NoError(t, err)

	_, err = runtimeSymbolAt(entry + 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrimPadding(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		pad  []byte
		want []byte
	}{
		{"int3 fill", []byte{0xc3, 0xcc, 0xcc, 0xcc}, []byte{0xcc}, []byte{0xc3}},
		{"no fill", []byte{0x90, 0xc3}, []byte{0xcc}, []byte{0x90, 0xc3}},
		{"all fill", []byte{0xcc, 0xcc}, []byte{0xcc}, []byte{}},
		{"zero words", []byte{0xc0, 0x03, 0x5f, 0xd6, 0, 0, 0, 0, 0, 0, 0, 0}, []byte{0, 0, 0, 0}, []byte{0xc0, 0x03, 0x5f, 0xd6}},
		{"partial word kept", []byte{0x00, 0x00, 0x00, 0xd6, 0, 0}, []byte{0, 0, 0, 0}, []byte{0x00, 0x00, 0x00, 0xd6, 0, 0}},
		{"empty pad", []byte{0xcc}, nil, []byte{0xcc}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, trimPadding(tc.code, tc.pad))
		})
	}
}
