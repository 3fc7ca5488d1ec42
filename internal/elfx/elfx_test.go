package elfx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banjo360/dump-diff/internal/elfx/elfxtest"
)

var (
	nop = []byte{0x1f, 0x20, 0x03, 0xd5}
	ret = []byte{0xc0, 0x03, 0x5f, 0xd6}
)

func writeELF(t *testing.T, funcs ...elfxtest.Func) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.elf")
	require.NoError(t, os.WriteFile(path, elfxtest.Build(0x400000, funcs...), 0o644))
	return path
}

func TestFindSymbolAndBytes(t *testing.T) {
	path := writeELF(t,
		elfxtest.Func{Name: "first", Code: append(append([]byte{}, nop...), ret...)},
		elfxtest.Func{Name: "_ZN3foo3barEv", Code: ret},
	)

	im, err := Open(path)
	require.NoError(t, err)
	defer im.Close()

	sym, err := im.FindSymbol("first")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x400000), sym.Addr)
	assert.Equal(t, uint64(8), sym.Size)

	code, err := im.SymbolBytes(sym)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, nop...), ret...), code)

	// Demangled lookups, with and without the parameter list.
	for _, name := range []string{"_ZN3foo3barEv", "foo::bar()", "foo::bar"} {
		sym, err := im.FindSymbol(name)
		require.NoError(t, err, name)
		assert.Equal(t, uint64(0x400008), sym.Addr, name)
	}
}

func TestFindSymbolMissing(t *testing.T) {
	im, err := Open(writeELF(t, elfxtest.Func{Name: "main", Code: ret}))
	require.NoError(t, err)
	defer im.Close()

	_, err = im.FindSymbol("nope")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestReadBytesVAUnmapped(t *testing.T) {
	im, err := Open(writeELF(t, elfxtest.Func{Name: "main", Code: ret}))
	require.NoError(t, err)
	defer im.Close()

	_, err = im.ReadBytesVA(0x10, 4)
	assert.Error(t, err)

	off, ok := im.VA2Off(0x400000)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x100), off)
}

func TestOpenNotELF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte("not an elf"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
