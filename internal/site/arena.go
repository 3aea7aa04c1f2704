package site

import "sort"

// Arena is the coordinator-owned, id-indexed collection of every site in
// the fleet. Per the design notes, a transaction's read/write operations
// never hold a back-reference to the coordinator or to sites directly;
// instead the coordinator passes this read-only-shaped borrow into each
// operation call.
type Arena struct {
	sites map[int]*Site
	ids   []int
}

// NewArena constructs an Arena with count live, empty sites numbered 1..count.
func NewArena(count int) *Arena {
	a := &Arena{sites: make(map[int]*Site, count)}
	for i := 1; i <= count; i++ {
		a.sites[i] = New(i)
		a.ids = append(a.ids, i)
	}
	sort.Ints(a.ids)
	return a
}

// Get returns the site with the given id, or nil if out of range.
func (a *Arena) Get(id int) *Site {
	return a.sites[id]
}

// IDs returns every site id in ascending order.
func (a *Arena) IDs() []int {
	return a.ids
}

// All returns every site, in ascending id order.
func (a *Arena) All() []*Site {
	out := make([]*Site, 0, len(a.ids))
	for _, id := range a.ids {
		out = append(out, a.sites[id])
	}
	return out
}

// HoldersOf returns the sites, in ascending id order, that hold recordID.
func (a *Arena) HoldersOf(recordID int) []*Site {
	var out []*Site
	for _, id := range a.ids {
		if a.sites[id].Has(recordID) {
			out = append(out, a.sites[id])
		}
	}
	return out
}

// LiveHoldersOf returns the live sites, in ascending id order, that hold recordID.
func (a *Arena) LiveHoldersOf(recordID int) []*Site {
	var out []*Site
	for _, id := range a.ids {
		s := a.sites[id]
		if s.Status() == Live && s.Has(recordID) {
			out = append(out, s)
		}
	}
	return out
}
