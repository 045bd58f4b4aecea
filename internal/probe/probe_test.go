package probe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	calls atomic.Int32
	err   error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	f.calls.Add(1)
	return f.err
}

func TestCheck_OK(t *testing.T) {
	pinger := &fakePinger{}
	p := New(pinger, 0)

	assert.True(t, p.Status().LastRun.IsZero())

	st := p.Check(context.Background())
	assert.True(t, st.OK)
	assert.Empty(t, st.Error)
	assert.False(t, st.LastRun.IsZero())
	assert.Equal(t, st, p.Status())
}

func TestCheck_Failure(t *testing.T) {
	pinger := &fakePinger{err: errors.New("invalid API key")}
	p := New(pinger, 0)

	st := p.Check(context.Background())
	assert.False(t, st.OK)
	assert.Equal(t, "invalid API key", st.Error)

	pinger.err = nil
	st = p.Check(context.Background())
	assert.True(t, st.OK)
	assert.Empty(t, p.Status().Error)
}

func TestStart_Disabled(t *testing.T) {
	pinger := &fakePinger{}
	p := New(pinger, 0)

	require.NoError(t, p.Start())
	assert.False(t, p.Enabled())
	p.Stop()
	assert.Equal(t, int32(0), pinger.calls.Load())
}

func TestStart_RunsImmediately(t *testing.T) {
	pinger := &fakePinger{}
	p := New(pinger, time.Hour)

	require.NoError(t, p.Start())
	t.Cleanup(p.Stop)

	require.Eventually(t, func() bool {
		return pinger.calls.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return p.Status().OK
	}, 2*time.Second, 10*time.Millisecond)
}
