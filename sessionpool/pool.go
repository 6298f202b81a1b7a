// Copyright 2016 CoreOS, Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sessionpool coordinates the shutdown of many deflate.Session
// handles at once, for a server that keeps one Session per in-flight
// connection and needs to tear all of them down together on drain. It
// generalizes stop.Group's Stoppable/StopperFunc pattern from an arbitrary
// process to the specific case of a *deflate.Session, whose own "stop" is
// Destroy.
package sessionpool

import (
	"sync"

	"github.com/flatestream/deflate"
)

// AlreadyDone is a closed channel, for callers whose session was already
// destroyed before being handed to a Pool.
var AlreadyDone <-chan struct{}

func init() {
	closeMe := make(chan struct{})
	close(closeMe)
	AlreadyDone = closeMe
}

// StopperFunc destroys whatever it closes over and reports completion on
// the returned channel.
type StopperFunc func() <-chan struct{}

// Pool holds a set of sessions (or arbitrary StopperFuncs) to be destroyed
// together, e.g. when a server is draining connections.
type Pool struct {
	stoppers []StopperFunc
	lock     sync.Mutex
}

// New allocates an empty Pool.
func New() *Pool {
	return &Pool{stoppers: make([]StopperFunc, 0)}
}

// Add registers a Session with the pool. Destroy is called on Stop.
func (p *Pool) Add(s *deflate.Session) {
	p.AddFunc(func() <-chan struct{} {
		s.Destroy()
		return AlreadyDone
	})
}

// AddFunc registers an arbitrary stop callback, for integrating something
// other than a bare *deflate.Session (e.g. a wrapper that first drains a
// connection's remaining buffered output before destroying its session).
func (p *Pool) AddFunc(f StopperFunc) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.stoppers = append(p.stoppers, f)
}

// Stop destroys every registered session and returns a channel that closes
// once all of them have reported completion. The pool is empty afterward
// and may be reused.
func (p *Pool) Stop() <-chan struct{} {
	p.lock.Lock()
	defer p.lock.Unlock()

	whenDone := make(chan struct{})
	waitChannels := make([]<-chan struct{}, 0, len(p.stoppers))
	for _, stop := range p.stoppers {
		waitFor := stop()
		if waitFor == nil {
			panic("sessionpool: a StopperFunc returned a nil channel")
		}
		waitChannels = append(waitChannels, waitFor)
	}
	p.stoppers = make([]StopperFunc, 0)

	go func() {
		for _, waitForMe := range waitChannels {
			<-waitForMe
		}
		close(whenDone)
	}()

	return whenDone
}

// Len reports how many stoppables are currently registered.
func (p *Pool) Len() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.stoppers)
}
