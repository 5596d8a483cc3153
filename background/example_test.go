// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background_test

import (
	"fmt"

	"github.com/yoyow-org/yoyowd/background"
)

type announcer struct {
	name string
}

func (a *announcer) Run(args interface{}, shutdown <-chan struct{}) {
	<-shutdown
	fmt.Printf("%s stopped\n", a.name)
}

func Example() {
	p := background.Start(background.Processes{&announcer{name: "producer"}}, nil)
	p.Stop()
	fmt.Println("all stopped")

	// Output:
	// producer stopped
	// all stopped
}
