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

package sequencer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/nexusgen/internal/workflow"
)

type recorder struct {
	mu       sync.Mutex
	steps    []Step
	outcomes []Outcome
}

func (r *recorder) apply(s Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, s)
}

func (r *recorder) done(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recorder) snapshot() ([]Step, []Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Step(nil), r.steps...), append([]Outcome(nil), r.outcomes...)
}

var script = Script{
	{AgentID: "architect", Status: workflow.StatusInitializing},
	{AgentID: "architect", Status: workflow.StatusAnalyzing},
	{AgentID: "designer", Status: workflow.StatusCreating},
	{AgentID: "engineer", Status: workflow.StatusWorking},
}

func waitExit(t *testing.T, s *Sequencer) {
	t.Helper()
	select {
	case <-s.Exited():
	case <-time.After(2 * time.Second):
		t.Fatal("sequencer did not exit")
	}
}

func TestRun_Exhausts(t *testing.T) {
	r := &recorder{}
	s := New(script, r.apply, r.done, WithInterval(2*time.Millisecond))
	s.Run(context.Background())

	steps, outcomes := r.snapshot()
	assert.Equal(t, []Step(script), steps)
	assert.Equal(t, []Outcome{Exhausted}, outcomes)
	waitExit(t, s)
}

func TestRun_FirstStepIsImmediate(t *testing.T) {
	r := &recorder{}
	s := New(script, r.apply, r.done, WithInterval(time.Hour))
	go s.Run(context.Background())

	require.Eventually(t, func() bool {
		steps, _ := r.snapshot()
		return len(steps) == 1
	}, time.Second, time.Millisecond)

	s.Cancel()
	waitExit(t, s)
	steps, outcomes := r.snapshot()
	assert.Len(t, steps, 1)
	assert.Equal(t, []Outcome{Cancelled}, outcomes)
}

func TestCancel_ReportsBeforeReturning(t *testing.T) {
	r := &recorder{}
	s := New(script, r.apply, r.done, WithInterval(time.Hour))
	go s.Run(context.Background())
	require.Eventually(t, func() bool {
		steps, _ := r.snapshot()
		return len(steps) > 0
	}, time.Second, time.Millisecond)

	s.Cancel()
	_, outcomes := r.snapshot()
	assert.Equal(t, []Outcome{Cancelled}, outcomes)

	// repeated cancels and stops are no-ops
	s.Cancel()
	s.Stop()
	waitExit(t, s)
	_, outcomes = r.snapshot()
	assert.Len(t, outcomes, 1)
}

func TestCancel_NoStepsAfterCancel(t *testing.T) {
	r := &recorder{}
	s := New(script, r.apply, r.done, WithInterval(time.Millisecond))
	s.Cancel()
	s.Run(context.Background())

	steps, outcomes := r.snapshot()
	assert.Empty(t, steps)
	assert.Equal(t, []Outcome{Cancelled}, outcomes)
}

func TestStop_Silent(t *testing.T) {
	r := &recorder{}
	s := New(script, r.apply, r.done, WithInterval(time.Hour))
	go s.Run(context.Background())
	require.Eventually(t, func() bool {
		steps, _ := r.snapshot()
		return len(steps) == 1
	}, time.Second, time.Millisecond)

	s.Stop()
	waitExit(t, s)
	_, outcomes := r.snapshot()
	assert.Empty(t, outcomes)
}

func TestRun_ContextTeardown(t *testing.T) {
	r := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	s := New(script, r.apply, r.done, WithInterval(time.Hour))
	go s.Run(ctx)
	require.Eventually(t, func() bool {
		steps, _ := r.snapshot()
		return len(steps) == 1
	}, time.Second, time.Millisecond)

	cancel()
	waitExit(t, s)
	_, outcomes := r.snapshot()
	assert.Equal(t, []Outcome{Cancelled}, outcomes)
}

func TestRun_EmptyScript(t *testing.T) {
	r := &recorder{}
	s := New(nil, r.apply, r.done)
	s.Run(context.Background())
	steps, outcomes := r.snapshot()
	assert.Empty(t, steps)
	assert.Equal(t, []Outcome{Exhausted}, outcomes)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "exhausted", Exhausted.String())
	assert.Equal(t, "cancelled", Cancelled.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
