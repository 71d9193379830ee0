package guard

import "sync"

// History is an in-process navigation stack.
type History struct {
	mu      sync.Mutex
	entries []string
}

// NewHistory starts at route.
func NewHistory(route string) *History {
	return &History{entries: []string{route}}
}

func (h *History) Push(route string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, route)
}

// Replace swaps the current entry, so Back never returns to it.
func (h *History) Replace(route string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		h.entries = append(h.entries, route)
		return
	}
	h.entries[len(h.entries)-1] = route
}

// Back pops the current entry and reports whether there was one to go back to.
func (h *History) Back() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) < 2 {
		return false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return true
}

func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

// Entries returns a copy of the stack, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Navigate adapts History to the session store's navigation hook.
func (h *History) Navigate(route string, replace bool) {
	if replace {
		h.Replace(route)
		return
	}
	h.Push(route)
}
