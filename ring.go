// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import "encoding/binary"

// ringCopyInto writes n bytes from src into buf starting at position pos
// (mod len(buf)), splitting the write at the ring boundary when it wraps.
// buf's length is the ring's byte capacity.
func ringCopyInto(buf []byte, pos uint64, src []byte) {
	cap64 := uint64(len(buf))
	start := pos % cap64
	n := copy(buf[start:], src)
	if n < len(src) {
		copy(buf[:], src[n:])
	}
}

// ringCopyOutOf reads len(dst) bytes from buf starting at position pos
// (mod len(buf)) into dst, splitting the read at the ring boundary when
// it wraps. It is the symmetric counterpart of ringCopyInto.
func ringCopyOutOf(buf []byte, pos uint64, dst []byte) {
	cap64 := uint64(len(buf))
	start := pos % cap64
	n := copy(dst, buf[start:])
	if n < len(dst) {
		copy(dst[n:], buf[:])
	}
}

// putLengthPrefix writes the one-machine-word length prefix that precedes
// every Any-discipline record, splicing across the ring boundary like any
// other write.
func putLengthPrefix(buf []byte, pos uint64, n int) {
	var word [lengthPrefixSize]byte
	binary.LittleEndian.PutUint64(word[:], uint64(n))
	ringCopyInto(buf, pos, word[:])
}

// getLengthPrefix reads the length prefix at pos.
func getLengthPrefix(buf []byte, pos uint64) int {
	var word [lengthPrefixSize]byte
	ringCopyOutOf(buf, pos, word[:])
	return int(binary.LittleEndian.Uint64(word[:]))
}
