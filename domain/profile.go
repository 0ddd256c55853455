// Package domain contains core concepts of the chat system.
// This file defines user profiles, genders and search preferences.
// No runtime, network, or UI logic should be added here.
package domain

import "strings"

type Gender string

const (
	Female      Gender = "female"
	Male        Gender = "male"
	Transgender Gender = "transgender"
)

func (g Gender) IsValid() bool {
	switch g {
	case Female, Male, Transgender:
		return true
	default:
		return false
	}
}

// Preference is the partner category a user asks for when searching.
// Anyone is not a wildcard, see IsCompatible.
type Preference string

const (
	PreferFemale      Preference = "female"
	PreferMale        Preference = "male"
	PreferTransgender Preference = "transgender"
	PreferAnyone      Preference = "anyone"
)

func (p Preference) IsValid() bool {
	switch p {
	case PreferFemale, PreferMale, PreferTransgender, PreferAnyone:
		return true
	default:
		return false
	}
}

// ParsePreference accepts the wire value case-insensitively.
func ParsePreference(s string) (Preference, bool) {
	p := Preference(strings.ToLower(strings.TrimSpace(s)))
	return p, p.IsValid()
}

// ParseGender accepts the wire value case-insensitively.
func ParseGender(s string) (Gender, bool) {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	return g, g.IsValid()
}

// Profile is attached to a connection once the user submitted it.
// Avatar is opaque to the server (data URI or URL).
type Profile struct {
	DisplayName string
	Gender      Gender
	Avatar      string
}
