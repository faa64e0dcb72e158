package loaders

import (
	"sync"

	"github.com/spaghettifunk/lina/engine/core"
)

type recordingSink struct {
	mutex  sync.Mutex
	events []core.EventContext
}

func (s *recordingSink) Fire(ctx core.EventContext) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.events = append(s.events, ctx)
	return false
}

func (s *recordingSink) Events() []core.EventContext {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := make([]core.EventContext, len(s.events))
	copy(out, s.events)
	return out
}
