// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux && (amd64 || arm64)

package rseq

import (
	"errors"
	"sync/atomic"
	"syscall"
	"unsafe"
)

// ErrUnavailable is returned by Register when the kernel rejects
// registration (no rseq support, or this thread is already registered by
// the runtime or another library).
var ErrUnavailable = errors.New("rseq: not available on this system")

// area mirrors the kernel's struct rseq (include/uapi/linux/rseq.h). Its
// layout, not its Go field names, is what the ABI cares about: cpu_id is
// updated by the kernel on every return to userspace and on migration.
type area struct {
	cpuIDStart uint32
	cpuID      uint32
	rseqCS     uint64 // pointer to struct rseq_cs, always a 64-bit field
	flags      uint32
	nodeID     uint32
	mmCID      uint32
	_          [4]byte // pad to the kernel's 32-byte minimum rseq_len
}

const rseqSig = 0x53053053 // arbitrary signature, must match across the binary

func registerArea() (*area, error) {
	a := &area{cpuIDStart: ^uint32(0), cpuID: ^uint32(0)}
	if err := doRseq(a, 0); err != nil {
		return nil, ErrUnavailable
	}
	return a, nil
}

func unregisterArea(a *area) {
	_ = doRseq(a, 1 /* RSEQ_FLAG_UNREGISTER */)
}

func doRseq(a *area, flags uintptr) error {
	_, _, errno := syscall.Syscall6(
		sysRseqNr,
		uintptr(unsafe.Pointer(a)),
		unsafe.Sizeof(*a),
		flags,
		rseqSig,
		0, 0,
	)
	if errno != 0 {
		return errno
	}
	return nil
}

func (a *area) cpu() int {
	return int(atomic.LoadUint32(&a.cpuIDStart))
}
