package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/lottiemp4/pkg/pipeline"
)

type recorder struct {
	events []pipeline.ProgressEvent
}

func (r *recorder) Report(e pipeline.ProgressEvent) {
	r.events = append(r.events, e)
}

func (r *recorder) percents() []int {
	out := make([]int, len(r.events))
	for i, e := range r.events {
		out[i] = e.Percent
	}
	return out
}

func TestFunc(t *testing.T) {
	var got []string
	f := Func(func(e pipeline.ProgressEvent) { got = append(got, e.Message) })
	f.Report(pipeline.ProgressEvent{Message: "a"})
	f.Report(pipeline.ProgressEvent{Message: "b"})
	assert.Equal(t, []string{"a", "b"}, got)

	assert.NotPanics(t, func() { Discard.Report(pipeline.ProgressEvent{}) })
}

func TestMonotonic(t *testing.T) {
	rec := &recorder{}
	m := NewMonotonic(rec)

	for _, p := range []int{-5, 10, 8, 50, 150, 99} {
		m.Report(pipeline.ProgressEvent{Percent: p})
	}
	assert.Equal(t, []int{0, 10, 10, 50, 100, 100}, rec.percents())
	assert.Equal(t, 100, m.Last())
}

func TestChannel_PreservesOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewChannel(ctx, 1)

	go func() {
		for i := 0; i <= 100; i += 10 {
			c.Report(pipeline.ProgressEvent{Percent: i})
		}
		c.Close()
	}()

	var got []int
	for e := range c.C() {
		got = append(got, e.Percent)
	}
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}, got)
}

func TestChannel_CancelUnblocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewChannel(ctx, 0)

	done := make(chan struct{})
	go func() {
		c.Report(pipeline.ProgressEvent{Percent: 1})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Report did not return after cancellation")
	}
}

func TestChannel_ReportAfterClose(t *testing.T) {
	c := NewChannel(context.Background(), 1)
	c.Close()
	c.Close()
	require.NotPanics(t, func() { c.Report(pipeline.ProgressEvent{Percent: 5}) })
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi(a, nil, b).Report(pipeline.ProgressEvent{Percent: 42})
	assert.Equal(t, []int{42}, a.percents())
	assert.Equal(t, []int{42}, b.percents())
}
