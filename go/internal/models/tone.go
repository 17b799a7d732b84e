package models

import (
	"fmt"
	"strings"
)

// Tone defines the writing style requested for a draft.
type Tone string

const (
	ToneFormal      Tone = "formal"
	ToneFriendly    Tone = "friendly"
	ToneBusiness    Tone = "business"
	ToneApologetic  Tone = "apologetic"
	ToneAngry       Tone = "angry"
	TonePromotional Tone = "promotional"
)

// DefaultTone is used when a request does not pick one.
const DefaultTone = ToneBusiness

// AllTones returns every supported tone in display order.
func AllTones() []Tone {
	return []Tone{ToneFormal, ToneFriendly, ToneBusiness, ToneApologetic, ToneAngry, TonePromotional}
}

// ParseTone converts user input into a Tone. Matching is case-insensitive.
func ParseTone(s string) (Tone, error) {
	candidate := Tone(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range AllTones() {
		if t == candidate {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tone %q", s)
}

// Valid reports whether t is one of the supported tones.
func (t Tone) Valid() bool {
	for _, candidate := range AllTones() {
		if candidate == t {
			return true
		}
	}
	return false
}

func (t Tone) String() string {
	return string(t)
}
