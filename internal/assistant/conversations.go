package assistant

import "sync"

// Exchange is one question and the answer shown for it. An empty Question
// means an explanation was requested.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Conversations holds transient Q&A history per medication id. It is never
// persisted.
type Conversations struct {
	mu      sync.Mutex
	history map[string][]Exchange
}

func NewConversations() *Conversations {
	return &Conversations{history: make(map[string][]Exchange)}
}

func (c *Conversations) add(medID string, e Exchange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history[medID] = append(c.history[medID], e)
}

// History returns a copy of the exchanges for medID, oldest first.
func (c *Conversations) History(medID string) []Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Exchange(nil), c.history[medID]...)
}

func (c *Conversations) Forget(medID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.history, medID)
}
