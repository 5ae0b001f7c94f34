// Package history keeps the rolling conversation context the backend call
// is fed with. It is deliberately process-local: a restart yields empty
// histories for everyone, which is accepted, not a bug.
package history

import "sync"

// Role tags a conversation turn by speaker.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is a single message in a conversation, oldest-first within a history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Store holds every user's bounded conversation history. Each conversation
// carries its own lock so users never contend with each other; the store
// lock only guards the map itself.
type Store struct {
	cap int

	mu    sync.Mutex
	convs map[string]*conversation
}

type conversation struct {
	mu    sync.Mutex
	turns []Turn
}

// NewStore creates a Store evicting oldest turns beyond cap.
func NewStore(cap int) *Store {
	return &Store{
		cap:   cap,
		convs: make(map[string]*conversation),
	}
}

func (s *Store) conv(userJID string) *conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[userJID]
	if !ok {
		c = &conversation{}
		s.convs[userJID] = c
	}
	return c
}

// AppendUserTurn records a message authored by the user.
func (s *Store) AppendUserTurn(userJID, content string) {
	s.append(userJID, Turn{Role: RoleUser, Content: content})
}

// AppendModelTurn records a reply authored by the model.
func (s *Store) AppendModelTurn(userJID, content string) {
	s.append(userJID, Turn{Role: RoleModel, Content: content})
}

// AppendExchange records a user turn and the model's reply as one locked
// operation, so concurrent requests for the same user cannot interleave
// their pairs.
func (s *Store) AppendExchange(userJID, prompt, reply string) {
	c := s.conv(userJID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, Turn{Role: RoleUser, Content: prompt}, Turn{Role: RoleModel, Content: reply})
	c.trim(s.cap)
}

func (s *Store) append(userJID string, turn Turn) {
	c := s.conv(userJID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turn)
	c.trim(s.cap)
}

// trim drops oldest turns until the history fits the cap. Eviction is by
// count only; a pair whose user half falls off the front stays half-evicted.
func (c *conversation) trim(cap int) {
	if len(c.turns) <= cap {
		return
	}
	drop := len(c.turns) - cap
	c.turns = append(c.turns[:0:0], c.turns[drop:]...)
}

// History returns a snapshot of the user's turns, oldest first. Later
// mutations are not visible through it.
func (s *Store) History(userJID string) []Turn {
	c := s.conv(userJID)
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Reset clears all turns for the user. The next message starts a fresh
// context.
func (s *Store) Reset(userJID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, userJID)
}
