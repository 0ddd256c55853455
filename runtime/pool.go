package runtime

import (
	"container/list"

	"stranger-chat/domain"
)

// WaitingEntry is a connection currently seeking a partner.
type WaitingEntry struct {
	Conn       domain.ConnID
	Profile    domain.Profile
	Preference domain.Preference
}

func (e WaitingEntry) seeker() domain.Seeker {
	return domain.Seeker{Gender: e.Profile.Gender, Preference: e.Preference}
}

// WaitingPool keeps waiting entries in insertion order so that scans always
// favour the longest waiting user.
// It is not safe for concurrent use: the Coordinator owns it and serializes access.
type WaitingPool struct {
	order   *list.List
	entries map[domain.ConnID]*list.Element
}

func NewWaitingPool() *WaitingPool {
	return &WaitingPool{
		order:   list.New(),
		entries: make(map[domain.ConnID]*list.Element),
	}
}

// Enter inserts the entry at the tail. A previous entry of the same connection is dropped first.
func (p *WaitingPool) Enter(id domain.ConnID, profile domain.Profile, preference domain.Preference) {
	p.Leave(id)
	p.entries[id] = p.order.PushBack(WaitingEntry{Conn: id, Profile: profile, Preference: preference})
}

// Leave removes the entry of id and reports whether there was one.
func (p *WaitingPool) Leave(id domain.ConnID) bool {
	elem, ok := p.entries[id]
	if !ok {
		return false
	}
	p.order.Remove(elem)
	delete(p.entries, id)
	return true
}

// Refresh replaces the profile of a waiting entry in place and reports whether id was waiting.
func (p *WaitingPool) Refresh(id domain.ConnID, profile domain.Profile) bool {
	elem, ok := p.entries[id]
	if !ok {
		return false
	}
	entry := elem.Value.(WaitingEntry)
	entry.Profile = profile
	elem.Value = entry
	return true
}

func (p *WaitingPool) Contains(id domain.ConnID) bool {
	_, ok := p.entries[id]
	return ok
}

// ScanFor returns the oldest entry, other than id itself, compatible with the given searcher.
func (p *WaitingPool) ScanFor(id domain.ConnID, profile domain.Profile, preference domain.Preference) (WaitingEntry, bool) {
	searcher := domain.Seeker{Gender: profile.Gender, Preference: preference}
	for elem := p.order.Front(); elem != nil; elem = elem.Next() {
		candidate := elem.Value.(WaitingEntry)
		if candidate.Conn == id {
			continue
		}
		if domain.IsCompatible(searcher, candidate.seeker()) {
			return candidate, true
		}
	}
	return WaitingEntry{}, false
}

// Entries returns a copy of the pool in insertion order.
func (p *WaitingPool) Entries() []WaitingEntry {
	res := make([]WaitingEntry, 0, p.order.Len())
	for elem := p.order.Front(); elem != nil; elem = elem.Next() {
		res = append(res, elem.Value.(WaitingEntry))
	}
	return res
}

func (p *WaitingPool) Len() int {
	return p.order.Len()
}
