package attach

import "testing"

func sampleStore() (*Store, []Attachment) {
	s := NewStore()
	items := []Attachment{
		{ID: "a", Name: "one.txt", Kind: KindDocument, Selected: true},
		{ID: "b", Name: "two.jpg", Kind: KindImage, Selected: false},
		{ID: "c", Name: "three.json", Kind: KindData, Selected: true},
	}
	for _, a := range items {
		s.Add(a)
	}
	return s, items
}

func TestStoreOrder(t *testing.T) {
	s, items := sampleStore()
	all := s.All()
	if len(all) != len(items) {
		t.Fatalf("Len = %d, want %d", len(all), len(items))
	}
	for i := range items {
		if all[i].ID != items[i].ID {
			t.Errorf("position %d: got %q, want %q", i, all[i].ID, items[i].ID)
		}
	}
}

func TestStoreToggleIdempotence(t *testing.T) {
	s, _ := sampleStore()
	before := s.All()[1].Selected
	s.Toggle("b")
	if got := s.All()[1].Selected; got == before {
		t.Fatal("toggle did not flip selection")
	}
	s.Toggle("b")
	if got := s.All()[1].Selected; got != before {
		t.Errorf("double toggle = %v, want original %v", got, before)
	}
}

func TestStoreSelectAllDeselectAll(t *testing.T) {
	s, _ := sampleStore()
	s.SelectAll()
	if got := len(s.Selected()); got != 3 {
		t.Errorf("after SelectAll: %d selected, want 3", got)
	}
	s.DeselectAll()
	if got := len(s.Selected()); got != 0 {
		t.Errorf("after DeselectAll: %d selected, want 0", got)
	}
}

func TestStoreRemove(t *testing.T) {
	s, _ := sampleStore()
	s.Remove("b")
	if s.Len() != 2 {
		t.Fatalf("Len = %d after remove, want 2", s.Len())
	}
	for _, a := range s.All() {
		if a.ID == "b" {
			t.Error("removed attachment still present")
		}
	}
	s.Remove("nope") // unknown IDs are ignored
	if s.Len() != 2 {
		t.Errorf("Len = %d after removing unknown ID, want 2", s.Len())
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	s, _ := sampleStore()
	all := s.All()
	all[0].Selected = false
	all[0].Name = "mutated"
	if got := s.All()[0]; got.Name == "mutated" || !got.Selected {
		t.Error("mutating a snapshot leaked into the store")
	}
}
