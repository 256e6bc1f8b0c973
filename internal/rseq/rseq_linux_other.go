// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux && !amd64 && !arm64

package rseq

import "errors"

// ErrUnavailable is returned by Register on Linux architectures this
// package has not been wired to a rseq syscall number for.
var ErrUnavailable = errors.New("rseq: not available on this system")

type area struct{}

func registerArea() (*area, error) {
	return nil, ErrUnavailable
}

func unregisterArea(*area) {}

func (a *area) cpu() int {
	return -1
}
