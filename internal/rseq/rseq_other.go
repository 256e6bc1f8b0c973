// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package rseq

import "errors"

// ErrUnavailable is returned by Register on platforms without rseq(2).
var ErrUnavailable = errors.New("rseq: not available on this system")

type area struct{}

func registerArea() (*area, error) {
	return nil, ErrUnavailable
}

func unregisterArea(*area) {}

func (a *area) cpu() int {
	return -1
}
