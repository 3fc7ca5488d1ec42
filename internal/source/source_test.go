package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banjo360/dump-diff/internal/elfx"
	"github.com/banjo360/dump-diff/internal/elfx/elfxtest"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		arg     string
		want    Spec
		wantErr bool
	}{
		{arg: "code.bin", want: Spec{Path: "code.bin"}},
		{arg: "code.bin:0x10", want: Spec{Path: "code.bin", Offset: 0x10}},
		{arg: "code.bin:0X1f", want: Spec{Path: "code.bin", Offset: 0x1f}},
		{arg: "code.bin:16", want: Spec{Path: "code.bin", Offset: 16}},
		{arg: "dir/a:b.bin:4", want: Spec{Path: "dir/a:b.bin", Offset: 4}},
		{arg: "code.bin:zz", wantErr: true},
		{arg: "code.bin:", wantErr: true},
		{arg: ":12", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := ParseSpec(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUint(t *testing.T) {
	v, err := ParseUint("0x80001000", 32)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x80001000), v)

	v, err = ParseUint("4096", 32)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), v)

	_, err = ParseUint("0x100000000", 32)
	assert.ErrorIs(t, err, ErrBadNumber)

	_, err = ParseUint("-1", 64)
	assert.ErrorIs(t, err, ErrBadNumber)
}

func TestSpecString(t *testing.T) {
	assert.Equal(t, "a.bin", Spec{Path: "a.bin"}.String())
	assert.Equal(t, "a.bin:0x20", Spec{Path: "a.bin", Offset: 0x20}.String())
	assert.Equal(t, "a.elf(main)", Spec{Path: "a.elf", Symbol: "main"}.String())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	require.NoError(t, os.WriteFile(path, data, 0o644))

	four := uint64(4)
	huge := uint64(1 << 20)

	tests := []struct {
		name   string
		spec   Spec
		length *uint64
		want   []byte
	}{
		{name: "whole file", spec: Spec{Path: path}, want: data},
		{name: "offset to end", spec: Spec{Path: path, Offset: 8}, want: data[8:]},
		{name: "offset and length", spec: Spec{Path: path, Offset: 4}, length: &four, want: data[4:8]},
		{name: "length past end", spec: Spec{Path: path, Offset: 8}, length: &huge, want: data[8:]},
		{name: "offset past end", spec: Spec{Path: path, Offset: 100}, want: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.spec, tt.length)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Spec{Path: filepath.Join(t.TempDir(), "missing.bin")}, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSymbol(t *testing.T) {
	code := []byte{0x1f, 0x20, 0x03, 0xd5, 0xc0, 0x03, 0x5f, 0xd6}
	path := filepath.Join(t.TempDir(), "prog.elf")
	require.NoError(t, os.WriteFile(path, elfxtest.Build(0x10000, elfxtest.Func{Name: "main", Code: code}), 0o644))

	buf, addr, err := LoadSymbol(path, "main")
	require.NoError(t, err)
	assert.Equal(t, code, buf)
	assert.Equal(t, uint64(0x10000), addr)

	_, _, err = LoadSymbol(path, "other")
	assert.ErrorIs(t, err, elfx.ErrSymbolNotFound)
}
