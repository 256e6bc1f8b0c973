// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For TryPush: the queue is full (backpressure).
// For TryPop: the queue is empty (no data available).
//
// ErrWouldBlock is a control-flow signal, not a failure. Callers should
// retry later, typically backing off via [Backoff] or parking on a
// [WaitEvent], rather than propagating the error.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrTimeout is a sentinel callers can wrap their own error around when
// [WaitEvent.WaitUntil] or [SpinThenWaitUntil] returns false, i.e. the
// deadline passed before the predicate became true. It is a distinct
// status, not an error in the failure sense.
var ErrTimeout = errors.New("aqueue: wait timed out")

// ErrRegionTooSmall is returned by an InitializeXxx placement constructor
// when the caller-supplied region is shorter than the corresponding
// CalculateXxxSize result.
var ErrRegionTooSmall = errors.New("aqueue: supplied region too small")

// ErrInvalidConfig is returned by an InitializeXxx placement constructor
// for the same configuration errors the corresponding NewXxx constructor
// panics on (e.g. an Any capacity too small to hold one length prefix
// plus one byte, or a participant limit below 1): placement construction
// favors returning null over asserting, since callers placing a queue
// into shared memory are more likely to compute region sizes
// dynamically.
var ErrInvalidConfig = errors.New("aqueue: invalid queue configuration")

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control-flow signal, not a failure.
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err) || errors.Is(err, ErrTimeout)
}

// IsNonFailure reports whether err represents a non-failure condition:
// nil, [ErrWouldBlock], or [ErrTimeout].
// Delegates to [iox.IsNonFailure] for the shared cases.
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err) || errors.Is(err, ErrTimeout)
}
