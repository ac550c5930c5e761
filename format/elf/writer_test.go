package elf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteToStampsTargetNoteSection(t *testing.T) {
	f := NewFile("x86_64-unknown-linux-gnu")
	AddNoteSection(f, ".note.abi", "llvm-abi", 1, []byte("i32(i32,ptr)"))

	var buf bytes.Buffer
	require.NoError(t, f.WriteTo(&buf))

	names := make([]string, 0, len(f.Sections))
	for _, sec := range f.Sections {
		names = append(names, sec.Name)
	}
	assert.Contains(t, names, ".note.llvm-abi.target")
	assert.Contains(t, names, ".note.abi")
	assert.Contains(t, names, ".symtab")
}

func TestWriteToWithoutTargetOmitsTargetNote(t *testing.T) {
	f := NewFile("")
	AddNoteSection(f, ".note.abi", "llvm-abi", 1, []byte("payload"))

	var buf bytes.Buffer
	require.NoError(t, f.WriteTo(&buf))

	for _, sec := range f.Sections {
		assert.NotEqual(t, ".note.llvm-abi.target", sec.Name)
	}
}

func TestEncodeNoteRoundTripsHeaderFields(t *testing.T) {
	note := EncodeNote("llvm-abi", 7, []byte("xy"))

	var namesz, descsz, noteType uint32
	r := bytes.NewReader(note)
	require.NoError(t, binary.Read(r, binary.LittleEndian, &namesz))
	require.NoError(t, binary.Read(r, binary.LittleEndian, &descsz))
	require.NoError(t, binary.Read(r, binary.LittleEndian, &noteType))

	assert.Equal(t, uint32(len("llvm-abi")+1), namesz)
	assert.Equal(t, uint32(2), descsz)
	assert.Equal(t, uint32(7), noteType)
}
