package cache

import (
	"reflect"
	"sync"

	"github.com/eapache/queue"

	"github.com/luciancaetano/shardnet/model"
)

// channelMessages keeps one channel's messages in arrival order. order holds message ids,
// oldest at the head.
type channelMessages struct {
	order *queue.Queue
	items map[model.ID]*model.Message
}

// messageStore bounds each channel to a fixed number of messages, evicting the oldest.
type messageStore struct {
	mu        sync.RWMutex
	size      int
	byChannel map[model.ID]*channelMessages
}

func newMessageStore(size int) *messageStore {
	return &messageStore{size: size, byChannel: make(map[model.ID]*channelMessages)}
}

func (s *messageStore) get(channelID, messageID model.ID) (*model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.byChannel[channelID]
	if !ok {
		return nil, false
	}
	m, ok := ch.items[messageID]
	return m, ok
}

func (s *messageStore) upsert(msg model.Message) (*model.Message, bool) {
	if s.size <= 0 {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.byChannel[msg.ChannelID]
	if !ok {
		ch = &channelMessages{order: queue.New(), items: make(map[model.ID]*model.Message)}
		s.byChannel[msg.ChannelID] = ch
	}

	if cur, ok := ch.items[msg.ID]; ok {
		if reflect.DeepEqual(*cur, msg) {
			return cur, false
		}
		ch.items[msg.ID] = &msg
		return &msg, true
	}

	ch.order.Add(msg.ID)
	ch.items[msg.ID] = &msg
	for ch.order.Length() > s.size {
		oldest := ch.order.Remove().(model.ID)
		delete(ch.items, oldest)
	}
	return &msg, true
}

func (s *messageStore) update(channelID, messageID model.ID, fn func(*model.Message)) (*model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.byChannel[channelID]
	if !ok {
		return nil, false
	}
	cur, ok := ch.items[messageID]
	if !ok {
		return nil, false
	}
	next := *cur
	fn(&next)
	if reflect.DeepEqual(*cur, next) {
		return cur, true
	}
	ch.items[messageID] = &next
	return &next, true
}

func (s *messageStore) remove(channelID model.ID, ids ...model.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.byChannel[channelID]
	if !ok {
		return 0
	}
	removed := 0
	for _, id := range ids {
		if _, ok := ch.items[id]; ok {
			delete(ch.items, id)
			removed++
		}
	}
	if removed == 0 {
		return 0
	}
	if len(ch.items) == 0 {
		delete(s.byChannel, channelID)
		return removed
	}

	// Rebuild the ring without the removed ids; it never holds more than size entries.
	order := queue.New()
	for i := 0; i < ch.order.Length(); i++ {
		id := ch.order.Get(i).(model.ID)
		if _, ok := ch.items[id]; ok {
			order.Add(id)
		}
	}
	ch.order = order
	return removed
}

func (s *messageStore) dropChannel(channelID model.ID) {
	s.mu.Lock()
	delete(s.byChannel, channelID)
	s.mu.Unlock()
}

// channel returns the channel's messages, oldest first.
func (s *messageStore) channel(channelID model.ID) []*model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.byChannel[channelID]
	if !ok {
		return nil
	}
	out := make([]*model.Message, 0, ch.order.Length())
	for i := 0; i < ch.order.Length(); i++ {
		out = append(out, ch.items[ch.order.Get(i).(model.ID)])
	}
	return out
}

func (s *messageStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, ch := range s.byChannel {
		n += len(ch.items)
	}
	return n
}

func (s *messageStore) clear() {
	s.mu.Lock()
	s.byChannel = make(map[model.ID]*channelMessages)
	s.mu.Unlock()
}
