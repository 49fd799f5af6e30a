// Package exever reads the product version embedded in a Windows executable's
// version resource.
package exever

import (
	"debug/pe"
	"encoding/binary"
	"errors"
	"strings"
	"unicode/utf16"
)

const (
	rtVersion       = 16
	resourceDirSize = 16
	resourceEntSize = 8
	subdirFlag      = 0x80000000

	// U.S. English, Unicode.
	defaultStringTable = "040904b0"
)

var errMalformed = errors.New("malformed version resource")

// Source looks up the product version of one executable.
type Source struct {
	Path string
}

func (s Source) ProductVersion() string {
	return ProductVersion(s.Path)
}

// ProductVersion returns StringFileInfo\040904b0\ProductVersion of the
// executable at path, or "" on any failure.
func ProductVersion(path string) string {
	f, err := pe.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	data, err := versionResource(f)
	if err != nil {
		return ""
	}
	v, err := parseProductVersion(data)
	if err != nil {
		return ""
	}
	return v
}

func versionResource(f *pe.File) ([]byte, error) {
	sec := f.Section(".rsrc")
	if sec == nil {
		return nil, errMalformed
	}
	rsrc, err := sec.Data()
	if err != nil {
		return nil, err
	}

	// type -> name -> language -> data entry
	off, err := findEntry(rsrc, 0, rtVersion, true)
	if err != nil {
		return nil, err
	}
	if off, err = findEntry(rsrc, off, -1, true); err != nil {
		return nil, err
	}
	if off, err = findEntry(rsrc, off, -1, false); err != nil {
		return nil, err
	}

	if int(off)+16 > len(rsrc) {
		return nil, errMalformed
	}
	rva := binary.LittleEndian.Uint32(rsrc[off:])
	size := binary.LittleEndian.Uint32(rsrc[off+4:])
	if rva < sec.VirtualAddress {
		return nil, errMalformed
	}
	start := uint64(rva - sec.VirtualAddress)
	end := start + uint64(size)
	if end > uint64(len(rsrc)) {
		return nil, errMalformed
	}
	return rsrc[start:end], nil
}

// findEntry scans the resource directory at dirOff for an entry with the
// given numeric id (-1 takes the first entry) and returns its target offset.
func findEntry(rsrc []byte, dirOff uint32, id int, wantDir bool) (uint32, error) {
	if int(dirOff)+resourceDirSize > len(rsrc) {
		return 0, errMalformed
	}
	named := binary.LittleEndian.Uint16(rsrc[dirOff+12:])
	ids := binary.LittleEndian.Uint16(rsrc[dirOff+14:])
	count := int(named) + int(ids)

	for i := 0; i < count; i++ {
		e := int(dirOff) + resourceDirSize + i*resourceEntSize
		if e+resourceEntSize > len(rsrc) {
			return 0, errMalformed
		}
		nameOrID := binary.LittleEndian.Uint32(rsrc[e:])
		target := binary.LittleEndian.Uint32(rsrc[e+4:])

		if id >= 0 && (nameOrID&subdirFlag != 0 || nameOrID != uint32(id)) {
			continue
		}
		if (target&subdirFlag != 0) != wantDir {
			return 0, errMalformed
		}
		return target &^ subdirFlag, nil
	}
	return 0, errMalformed
}

// block is one node of a VS_VERSIONINFO tree.
type block struct {
	key      string
	value    []byte
	text     bool
	children []block
}

func (b block) child(key string) (block, bool) {
	for _, c := range b.children {
		if strings.EqualFold(c.key, key) {
			return c, true
		}
	}
	return block{}, false
}

func (b block) textValue() string {
	u := make([]uint16, len(b.value)/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(b.value[i*2:])
	}
	return strings.TrimRight(string(utf16.Decode(u)), "\x00")
}

func parseProductVersion(data []byte) (string, error) {
	root, _, err := parseBlock(data)
	if err != nil {
		return "", err
	}

	sfi, ok := root.child("StringFileInfo")
	if !ok || len(sfi.children) == 0 {
		return "", errMalformed
	}
	table, ok := sfi.child(defaultStringTable)
	if !ok {
		table = sfi.children[0]
	}
	pv, ok := table.child("ProductVersion")
	if !ok {
		return "", errMalformed
	}
	return pv.textValue(), nil
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// parseBlock decodes one length-prefixed block and returns it together with
// its declared length.
func parseBlock(b []byte) (block, int, error) {
	if len(b) < 6 {
		return block{}, 0, errMalformed
	}
	length := int(binary.LittleEndian.Uint16(b))
	valueLen := int(binary.LittleEndian.Uint16(b[2:]))
	typ := binary.LittleEndian.Uint16(b[4:])
	if length < 6 || length > len(b) {
		return block{}, 0, errMalformed
	}
	b = b[:length]

	var key []uint16
	off := 6
	for {
		if off+2 > length {
			return block{}, 0, errMalformed
		}
		c := binary.LittleEndian.Uint16(b[off:])
		off += 2
		if c == 0 {
			break
		}
		key = append(key, c)
	}
	off = align4(off)

	blk := block{key: string(utf16.Decode(key)), text: typ == 1}

	size := valueLen
	if blk.text {
		size *= 2
	}
	if off+size > length {
		size = max(length-off, 0)
	}
	if size > 0 {
		blk.value = b[off : off+size]
	}
	off = align4(off + size)

	for off < length {
		child, n, err := parseBlock(b[off:])
		if err != nil {
			return block{}, 0, err
		}
		blk.children = append(blk.children, child)
		off = align4(off + n)
	}

	return blk, length, nil
}
