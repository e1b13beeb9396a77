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

// Package sequencer walks a fixed list of agent statuses on a timer to show
// progress while the real generation calls are in flight. It never looks at
// the calls themselves.
package sequencer

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm/log"
)

// DefaultInterval is the pause between two steps.
const DefaultInterval = 1500 * time.Millisecond

// Step shows one agent in one status.
type Step struct {
	AgentID string               `yaml:"agent" json:"agent"`
	Status  workflow.AgentStatus `yaml:"status" json:"status"`
}

// Script is an ordered list of steps.
type Script []Step

type Outcome int

const (
	// Exhausted means every step was shown.
	Exhausted Outcome = iota
	// Cancelled means the user or the caller's context ended the animation.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Exhausted:
		return "exhausted"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

type Option func(*Sequencer)

func WithInterval(d time.Duration) Option {
	return func(s *Sequencer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// Sequencer is single use: Run it once.
type Sequencer struct {
	script   Script
	interval time.Duration
	apply    func(Step)
	done     func(Outcome)

	mu       sync.Mutex
	finished bool
	quit     chan struct{}
	exited   chan struct{}
}

// New creates a sequencer. apply is called for every step shown; done is
// called at most once, when the script is exhausted or cancelled.
func New(script Script, apply func(Step), done func(Outcome), opts ...Option) *Sequencer {
	s := &Sequencer{
		script:   append(Script(nil), script...),
		interval: DefaultInterval,
		apply:    apply,
		done:     done,
		quit:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run shows step 0 at once and one more step per tick. It returns after the
// script is exhausted, or after Cancel, Stop or ctx ends.
func (s *Sequencer) Run(ctx context.Context) {
	defer close(s.exited)

	if len(s.script) == 0 {
		s.finish(Exhausted, true)
		return
	}
	if !s.show(0) {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 1; ; i++ {
		select {
		case <-ticker.C:
		case <-s.quit:
			return
		case <-ctx.Done():
			s.finish(Cancelled, true)
			return
		}
		if i >= len(s.script) {
			s.finish(Exhausted, true)
			return
		}
		if !s.show(i) {
			return
		}
	}
}

// Cancel stops further steps and reports Cancelled before returning.
func (s *Sequencer) Cancel() {
	s.finish(Cancelled, true)
}

// Stop stops further steps without reporting anything.
func (s *Sequencer) Stop() {
	s.finish(Cancelled, false)
}

// Exited is closed once Run has returned and its ticker is released.
func (s *Sequencer) Exited() <-chan struct{} {
	return s.exited
}

func (s *Sequencer) show(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return false
	}
	step := s.script[i]
	log.Debug("sequencer: step %d/%d %s -> %s", i+1, len(s.script), step.AgentID, step.Status)
	if s.apply != nil {
		s.apply(step)
	}
	return true
}

func (s *Sequencer) finish(o Outcome, report bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	close(s.quit)
	if report && s.done != nil {
		s.done(o)
	}
}
