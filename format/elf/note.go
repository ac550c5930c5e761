package elf

import (
	"bytes"
	"encoding/binary"
)

// EncodeNote packages name/desc as one ELF note record (the
// Elf64_Nhdr layout: namesz, descsz, type, then name and desc each padded
// up to a 4-byte boundary), per the conventions compilers use to embed
// ABI/build metadata in a SHT_NOTE section (e.g. ".note.ABI-tag",
// ".note.gnu.build-id"). This adapts the teacher's ELF writer — which only
// ever emitted SHT_PROGBITS/SHT_SYMTAB/SHT_STRTAB content — to also build
// a well-formed note payload, since spec.md's facade has no object-file
// operation of its own to drive this section type otherwise.
func EncodeNote(name string, noteType uint32, desc []byte) []byte {
	nameBytes := append([]byte(name), 0)

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(nameBytes)))
	binary.Write(&buf, binary.LittleEndian, uint32(len(desc)))
	binary.Write(&buf, binary.LittleEndian, noteType)
	buf.Write(nameBytes)
	padTo4(&buf, len(nameBytes))
	buf.Write(desc)
	padTo4(&buf, len(desc))

	return buf.Bytes()
}

func padTo4(buf *bytes.Buffer, n int) {
	if rem := n % 4; rem != 0 {
		buf.Write(make([]byte, 4-rem))
	}
}

// AddNoteSection adds a SHT_NOTE section named sectionName containing one
// note record (ownerName/noteType/desc) to f, returning the Section so the
// caller may additionally symbol-reference it.
func AddNoteSection(f *File, sectionName, ownerName string, noteType uint32, desc []byte) *Section {
	return f.AddSection(sectionName, SHT_NOTE, 0, EncodeNote(ownerName, noteType, desc))
}
