package runtime

import "stranger-chat/domain"

// Registry maps every connection that submitted a profile to that profile.
// It is not safe for concurrent use: the Coordinator owns it and serializes access.
type Registry struct {
	profiles map[domain.ConnID]domain.Profile
}

func NewRegistry() *Registry {
	return &Registry{profiles: make(map[domain.ConnID]domain.Profile)}
}

// Register stores the profile of a connection, replacing any previous one.
func (r *Registry) Register(id domain.ConnID, profile domain.Profile) {
	r.profiles[id] = profile
}

func (r *Registry) Lookup(id domain.ConnID) (domain.Profile, bool) {
	p, ok := r.profiles[id]
	return p, ok
}

func (r *Registry) Unregister(id domain.ConnID) {
	delete(r.profiles, id)
}

func (r *Registry) Len() int {
	return len(r.profiles)
}
