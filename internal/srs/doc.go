// Package srs implements the interval scheduling state machine for review
// cards: a pure transformation from (card, rating, clock) to the card's next
// scheduling state, plus non-mutating previews of all four outcomes.
package srs
