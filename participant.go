// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import (
	"errors"
	"sync"
)

// ErrTooManyParticipants is returned by Register when every participant
// id a queue was constructed with has already been handed out.
var ErrTooManyParticipants = errors.New("aqueue: too many concurrent participants")

// Participant is a stable id in [0, max) that a goroutine holds for the
// lifetime of its interaction with an MPSC or MPMC queue, used to index
// that queue's announcement table.
//
// The id is contract, not merely a hint: it must be unique among all
// goroutines concurrently calling TryPush/TryPop on the same queue. This
// registry hands out ids explicitly and requires an explicit Release —
// it deliberately does not auto-assign ids from an implicit goroutine-local
// key, since concurrent access from an unregistered goroutine would then
// silently share another goroutine's announcement slot.
type Participant struct {
	id       int
	registry *participantRegistry
}

// ID returns the participant's stable index.
func (p *Participant) ID() int { return p.id }

// Release returns the participant id to the pool so another goroutine
// may register with it. The caller must not use p for any further queue
// operation after calling Release.
func (p *Participant) Release() {
	p.registry.release(p.id)
}

// participantRegistry hands out ids in [0, max) on Register and takes
// them back on Release. It is a plain free-list guarded by a mutex —
// registration happens rarely (once per goroutine lifetime) compared to
// the hot TryPush/TryPop path, so there is no lock-free requirement here.
type participantRegistry struct {
	mu   sync.Mutex
	free []int
}

func newParticipantRegistry(max int) *participantRegistry {
	free := make([]int, max)
	for i := range free {
		free[i] = max - 1 - i
	}
	return &participantRegistry{free: free}
}

func (r *participantRegistry) register() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.free) == 0 {
		return 0, ErrTooManyParticipants
	}
	id := r.free[len(r.free)-1]
	r.free = r.free[:len(r.free)-1]
	return id, nil
}

func (r *participantRegistry) release(id int) {
	r.mu.Lock()
	r.free = append(r.free, id)
	r.mu.Unlock()
}
