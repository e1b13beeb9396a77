// Copyright 2025 ByteDance Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package workflow

import "sync"

// Dispatcher is what pipelines and sequencers write through.
type Dispatcher interface {
	Dispatch(a Action) State
}

// Listener observes every dispatched action with the state it produced.
// Listeners run under the store lock and must not dispatch.
type Listener func(a Action, s State)

// Store serializes all writes through Reduce. It is the only writer of the
// state it holds.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners []Listener
}

var _ Dispatcher = (*Store)(nil)

func NewStore(initial State) *Store {
	return &Store{state: initial}
}

func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := Reduce(s.state, a)
	s.state = next
	for _, l := range s.listeners {
		l(a, next)
	}
	return next
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}
