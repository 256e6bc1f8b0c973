// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue_test

import (
	"fmt"

	"code.hybscloud.com/aqueue"
)

// ExampleNewSPSC demonstrates a basic single-producer single-consumer
// pipeline stage.
func ExampleNewSPSC() {
	q := aqueue.NewSPSC[int](8)

	for i := 1; i <= 5; i++ {
		v := i * 10
		_ = q.TryPush(&v)
	}

	for range 5 {
		v, _ := q.TryPop()
		fmt.Println(v)
	}

	// Output:
	// 10
	// 20
	// 30
	// 40
	// 50
}

// ExampleNewMPSC demonstrates a multi-producer single-consumer queue:
// every producer registers a participant before its first TryPush.
func ExampleNewMPSC() {
	q := aqueue.NewMPSC[string](8, 1)
	p, err := q.Register()
	if err != nil {
		panic(err)
	}
	defer p.Release()

	for _, s := range []string{"alpha", "beta", "gamma"} {
		s := s
		_ = q.TryPush(p, &s)
	}

	for range 3 {
		v, _ := q.TryPop()
		fmt.Println(v)
	}

	// Output:
	// alpha
	// beta
	// gamma
}

// ExampleNewSPSCAny demonstrates the variable-length byte-record
// discipline.
func ExampleNewSPSCAny() {
	q := aqueue.NewSPSCAny(256)

	_ = q.TryPush([]byte("first"))
	_ = q.TryPush([]byte("second"))

	dst := make([]byte, 32)
	for range 2 {
		w, _, _ := q.TryPop(dst)
		fmt.Println(string(dst[:w]))
	}

	// Output:
	// first
	// second
}
