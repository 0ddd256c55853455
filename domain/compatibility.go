package domain

// Seeker is the part of a waiting user the matcher looks at.
type Seeker struct {
	Gender     Gender
	Preference Preference
}

// effective resolves Anyone to the seeker's own gender.
func (s Seeker) effective() Gender {
	if s.Preference == PreferAnyone {
		return s.Gender
	}
	return Gender(s.Preference)
}

// IsCompatible reports whether a may be paired with b.
//
// Both users must share the same gender and both effective preferences must
// equal that gender. Anyone only ever matches a user of the searcher's own
// gender: {female, anyone} and {male, anyone} are not compatible.
func IsCompatible(a, b Seeker) bool {
	if !a.Gender.IsValid() || !b.Gender.IsValid() {
		return false
	}
	if !a.Preference.IsValid() || !b.Preference.IsValid() {
		return false
	}
	return a.Gender == b.Gender &&
		a.effective() == b.Gender &&
		b.effective() == b.Gender
}
