package srs

import (
	"encoding"
	"fmt"
)

// Stage represents a card's position in the scheduling lifecycle.
type Stage int

const (
	// StageNew is the zero value: the card has never been reviewed.
	StageNew Stage = iota
	// StageLearning covers the short-step phase, intervals under one day.
	StageLearning
	// StageReview is the long-term cycle, intervals of a day or more.
	StageReview
)

var (
	stageNames  = [...]string{StageNew: "new", StageLearning: "learning", StageReview: "review"}
	stageByName = map[string]Stage{
		"new":      StageNew,
		"learning": StageLearning,
		"review":   StageReview,
	}
)

var (
	_ fmt.Stringer             = Stage(0)
	_ encoding.TextMarshaler   = Stage(0)
	_ encoding.TextUnmarshaler = (*Stage)(nil)
)

func (s Stage) isValid() bool {
	return s >= StageNew && s <= StageReview
}

func (s Stage) String() string {
	if s.isValid() {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.isValid() {
		return nil, fmt.Errorf("srs: invalid stage: %d", int(s))
	}
	return []byte(stageNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	v, ok := stageByName[string(text)]
	if !ok {
		return fmt.Errorf("srs: invalid stage: %q", text)
	}
	*s = v
	return nil
}
