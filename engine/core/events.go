package core

import "sync"

type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Application configuration is known and subsystems may start loading.
	/* Context usage:
	 * data := ctx.Data.(*AppLoadEvent)
	 */
	EVENT_CODE_APP_LOAD SystemEventCode = 0x02

	// Fired once right before the main loop starts.
	EVENT_CODE_PRE_MAIN_LOOP SystemEventCode = 0x03

	// Fired once after the main loop exits, before teardown.
	EVENT_CODE_POST_MAIN_LOOP SystemEventCode = 0x04

	// A background import/export started or ended.
	/* Context usage:
	 * progress := ctx.Data.(*metadata.ResourceProgressData), shared with the
 * resource manager; read it through Snapshot()
	 */
	EVENT_CODE_RESOURCE_PROGRESS_STARTED SystemEventCode = 0x10
	EVENT_CODE_RESOURCE_PROGRESS_ENDED   SystemEventCode = 0x11

	// A level and all of its resources are resident. No payload.
	EVENT_CODE_LEVEL_LOADED SystemEventCode = 0x12

	// Typed resource payloads. The receiver owns the data carried by the event.
	EVENT_CODE_IMAGE_RESOURCE_LOADED         SystemEventCode = 0x20
	EVENT_CODE_MESH_RESOURCE_LOADED          SystemEventCode = 0x21
	EVENT_CODE_AUDIO_RESOURCE_LOADED         SystemEventCode = 0x22
	EVENT_CODE_MATERIAL_RESOURCE_LOADED      SystemEventCode = 0x23
	EVENT_CODE_SHADER_RESOURCE_LOADED        SystemEventCode = 0x24
	EVENT_CODE_IMAGE_META_RESOURCE_LOADED    SystemEventCode = 0x25
	EVENT_CODE_MESH_META_RESOURCE_LOADED     SystemEventCode = 0x26
	EVENT_CODE_MATERIAL_META_RESOURCE_LOADED SystemEventCode = 0x27

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

// Should return true if handled.
type FnOnEvent func(ctx EventContext) bool

// EventSink is everything the resource pipeline needs from an event bus.
type EventSink interface {
	Fire(ctx EventContext) bool
}

type AppLoadEvent struct {
	Mode ApplicationMode
}

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventBus dispatches events synchronously on the firing goroutine.
type EventBus struct {
	mutex      sync.RWMutex
	registered map[SystemEventCode][]*registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listener/code combos will not be registered again and will cause this to return FALSE.
 * The listener must be comparable (usually a pointer).
 */
func (eb *EventBus) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if code < 0 || code >= MAX_MESSAGE_CODES || onEvent == nil {
		return false
	}
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	for _, e := range eb.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	eb.registered[code] = append(eb.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code. If no matching
 * registration is found, this function returns FALSE.
 */
func (eb *EventBus) Unregister(code SystemEventCode, listener interface{}) bool {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	events := eb.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eb.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * TRUE, the event is considered handled and is not passed on to any more listeners.
 * Callbacks run without the bus lock held, so they may register or fire.
 */
func (eb *EventBus) Fire(ctx EventContext) bool {
	eb.mutex.RLock()
	events := eb.registered[ctx.Type]
	eb.mutex.RUnlock()

	for _, e := range events {
		if e.callback(ctx) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (eb *EventBus) Shutdown() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	eb.registered = make(map[SystemEventCode][]*registeredEvent)
}
