package attach

import "sync"

// Store is the ordered collection of ingested attachments with per-item
// selection flags. Concurrent ingestions append from separate goroutines,
// so all access goes through the mutex; callers only ever see snapshot
// copies.
type Store struct {
	mu    sync.Mutex
	items []Attachment
}

func NewStore() *Store {
	return &Store{}
}

// Add appends a completed attachment. The ingestor is the only producer and
// only hands over fully populated records.
func (s *Store) Add(a Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, a)
}

// Remove deletes the attachment with the given ID; unknown IDs are ignored.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Toggle flips the selection flag of one attachment.
func (s *Store) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Selected = !s.items[i].Selected
			return
		}
	}
}

// SelectAll marks every attachment for inclusion in the next request.
func (s *Store) SelectAll() {
	s.setAll(true)
}

// DeselectAll clears every selection flag.
func (s *Store) DeselectAll() {
	s.setAll(false)
}

func (s *Store) setAll(selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.items[i].Selected = selected
	}
}

// Selected returns a snapshot of the selected attachments in store order.
func (s *Store) Selected() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Attachment
	for _, a := range s.items {
		if a.Selected {
			out = append(out, a)
		}
	}
	return out
}

// All returns a snapshot of every attachment in store order.
func (s *Store) All() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Attachment, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
