package services

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestReplayGuard_Claim(t *testing.T) {
	g := NewReplayGuard(time.Minute)
	alice, bob := uuid.New(), uuid.New()

	assert.True(t, g.Claim(alice, "123456"))
	assert.False(t, g.Claim(alice, "123456"))
	assert.True(t, g.Claim(alice, "654321"))
	assert.True(t, g.Claim(bob, "123456"), "claims are per user")
}

func TestReplayGuard_Expires(t *testing.T) {
	g := NewReplayGuard(20 * time.Millisecond)
	id := uuid.New()

	assert.True(t, g.Claim(id, "123456"))
	time.Sleep(40 * time.Millisecond)
	assert.True(t, g.Claim(id, "123456"))
}

func TestReplayGuard_ConcurrentClaimsAdmitOne(t *testing.T) {
	g := NewReplayGuard(time.Minute)
	id := uuid.New()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Claim(id, "123456") {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestReplayGuard_NilAllowsAll(t *testing.T) {
	var g *ReplayGuard
	assert.True(t, g.Claim(uuid.New(), "123456"))
	assert.True(t, g.Claim(uuid.New(), "123456"))
}

func TestReplayGuard_CoverRaisesWindow(t *testing.T) {
	tests := []struct {
		name       string
		configured time.Duration
		acceptance time.Duration
		want       time.Duration
	}{
		{"shorter than acceptance", time.Second, 90 * time.Second, 90 * time.Second},
		{"already covers", 2 * time.Minute, 90 * time.Second, 2 * time.Minute},
		{"equal", 90 * time.Second, 90 * time.Second, 90 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewReplayGuard(tt.configured)
			g.cover(tt.acceptance)
			assert.Equal(t, tt.want, g.window)
		})
	}

	var nilGuard *ReplayGuard
	assert.NotPanics(t, func() { nilGuard.cover(time.Minute) })
}

func TestReplayGuard_RaisedWindowOutlivesConfigured(t *testing.T) {
	g := NewReplayGuard(time.Millisecond)
	g.cover(time.Minute)
	id := uuid.New()

	assert.True(t, g.Claim(id, "123456"))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, g.Claim(id, "123456"))
}
