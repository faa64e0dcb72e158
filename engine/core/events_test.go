package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listener struct {
	name string
}

func TestEventBusDeliversInRegistrationOrder(t *testing.T) {
	bus := NewEventBus()
	a, b := &listener{"a"}, &listener{"b"}

	var got []string
	require.True(t, bus.Register(EVENT_CODE_LEVEL_LOADED, a, func(EventContext) bool {
		got = append(got, "a")
		return false
	}))
	require.True(t, bus.Register(EVENT_CODE_LEVEL_LOADED, b, func(EventContext) bool {
		got = append(got, "b")
		return false
	}))

	assert.False(t, bus.Fire(EventContext{Type: EVENT_CODE_LEVEL_LOADED}))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestEventBusStopsWhenHandled(t *testing.T) {
	bus := NewEventBus()
	a, b := &listener{"a"}, &listener{"b"}

	calledB := false
	bus.Register(EVENT_CODE_APPLICATION_QUIT, a, func(EventContext) bool { return true })
	bus.Register(EVENT_CODE_APPLICATION_QUIT, b, func(EventContext) bool {
		calledB = true
		return false
	})

	assert.True(t, bus.Fire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT}))
	assert.False(t, calledB)
}

func TestEventBusRejectsDuplicateListener(t *testing.T) {
	bus := NewEventBus()
	a := &listener{"a"}
	fn := func(EventContext) bool { return false }

	assert.True(t, bus.Register(EVENT_CODE_APP_LOAD, a, fn))
	assert.False(t, bus.Register(EVENT_CODE_APP_LOAD, a, fn))
	assert.True(t, bus.Register(EVENT_CODE_PRE_MAIN_LOOP, a, fn))
	assert.False(t, bus.Register(EVENT_CODE_APP_LOAD, &listener{"nil"}, nil))
}

func TestEventBusUnregister(t *testing.T) {
	bus := NewEventBus()
	a := &listener{"a"}
	calls := 0
	bus.Register(EVENT_CODE_POST_MAIN_LOOP, a, func(EventContext) bool {
		calls++
		return false
	})

	bus.Fire(EventContext{Type: EVENT_CODE_POST_MAIN_LOOP})
	assert.True(t, bus.Unregister(EVENT_CODE_POST_MAIN_LOOP, a))
	assert.False(t, bus.Unregister(EVENT_CODE_POST_MAIN_LOOP, a))
	bus.Fire(EventContext{Type: EVENT_CODE_POST_MAIN_LOOP})

	assert.Equal(t, 1, calls)
}

func TestEventBusPassesPayload(t *testing.T) {
	bus := NewEventBus()
	var got *AppLoadEvent
	bus.Register(EVENT_CODE_APP_LOAD, t, func(ctx EventContext) bool {
		got, _ = ctx.Data.(*AppLoadEvent)
		return false
	})

	bus.Fire(EventContext{Type: EVENT_CODE_APP_LOAD, Data: &AppLoadEvent{Mode: ApplicationModeStandalone}})
	require.NotNil(t, got)
	assert.Equal(t, ApplicationModeStandalone, got.Mode)
}

func TestEventBusConcurrentFire(t *testing.T) {
	bus := NewEventBus()
	var mu sync.Mutex
	count := 0
	bus.Register(EVENT_CODE_IMAGE_RESOURCE_LOADED, t, func(EventContext) bool {
		mu.Lock()
		count++
		mu.Unlock()
		return false
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Fire(EventContext{Type: EVENT_CODE_IMAGE_RESOURCE_LOADED})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, count)
}

func TestApplicationModeText(t *testing.T) {
	var m ApplicationMode
	require.NoError(t, m.UnmarshalText([]byte("Standalone")))
	assert.Equal(t, ApplicationModeStandalone, m)
	assert.False(t, m.IsEditor())

	require.NoError(t, m.UnmarshalText([]byte("editor-game")))
	assert.True(t, m.IsEditor())

	assert.Error(t, m.UnmarshalText([]byte("server")))

	text, err := ApplicationModeEditor.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "editor", string(text))
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, WarnLevel, level)

	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}
