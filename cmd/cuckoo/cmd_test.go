package main

import (
	"bytes"
	"errors"
	"os"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pboyd/cuckoo"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestStubCmd(t *testing.T) {
	out, err := run(t, "stub", "--arch", "386", "--from", "0x1000", "--to", "2000")
	require.NoError(t, err)
	assert.Contains(t, out, "e9fb0f0000 (5 bytes)")
	assert.Contains(t, out, "JMP")
}

func TestStubCmd_Errors(t *testing.T) {
	_, err := run(t, "stub", "--arch", "mips", "--from", "0x1000", "--to", "0x2000")
	assert.ErrorContains(t, err, "no encoder")

	_, err = run(t, "stub", "--from", "zz", "--to", "0x2000")
	assert.ErrorContains(t, err, "--from")

	_, err = run(t, "stub", "--from", "0x1000")
	assert.Error(t, err)
}

func requireLinux(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("reads an ELF executable")
	}
}

// requireSymtab skips the test when this test binary has no static symbol
// table, as with binaries linked with -s.
func requireSymtab(t *testing.T) {
	t.Helper()
	requireLinux(t)

	img, err := cuckoo.OpenSelf()
	require.NoError(t, err)
	defer img.Close()

	dir, err := cuckoo.ParseSymbols(img)
	if errors.Is(err, cuckoo.ErrFormat) || (err == nil && len(dir.Symbols(cuckoo.SymTab)) == 0) {
		t.Skip("executable has no static symbol table")
	}
	require.NoError(t, err)
}

func TestSymbolsCmd_Self(t *testing.T) {
	requireSymtab(t)

	out, err := run(t, "symbols", "--table", "symtab")
	require.NoError(t, err)
	assert.Contains(t, out, "ADDRESS")
	assert.Contains(t, out, "main.newRootCmd")
}

func TestSymbolsCmd_Pid(t *testing.T) {
	requireSymtab(t)

	out, err := run(t, "symbols", "--pid", strconv.Itoa(os.Getpid()))
	require.NoError(t, err)
	assert.Contains(t, out, "main.newRootCmd(addr=")
}

func TestSymbolsCmd_PathAndPid(t *testing.T) {
	_, err := run(t, "symbols", "--pid", "1", "/bin/true")
	assert.ErrorContains(t, err, "not both")
}

func TestLookupCmd(t *testing.T) {
	requireSymtab(t)

	out, err := run(t, "lookup", "main.newRootCmd")
	require.NoError(t, err)
	assert.Contains(t, out, "main.newRootCmd(addr=")
	assert.NotContains(t, out, "cannot be patched")

	out, err = run(t, "lookup", "runtime.buildVersion")
	require.NoError(t, err)
	assert.Contains(t, out, "not a function (STT_OBJECT)")

	_, err = run(t, "lookup", "nonexistent_symbol")
	assert.ErrorContains(t, err, "not found")
}
