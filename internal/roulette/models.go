package roulette

import (
	"errors"

	"github.com/kitmnp/whattowatch/internal/models"
)

// Phase tracks the progress of a single spin. Transitions are strictly
// forward (Idle -> Selecting -> Revealing -> Settled); Reset is the only
// way back to Idle and is legal from any phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSelecting
	PhaseRevealing
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSelecting:
		return "selecting"
	case PhaseRevealing:
		return "revealing"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

var (
	// ErrEmptySelection is reported when Spin is called with nothing
	// selected. The engine state is untouched.
	ErrEmptySelection = errors.New("no movies selected for the roulette")

	// ErrSpinActive is returned when Spin is called before the previous
	// spin was reset.
	ErrSpinActive = errors.New("a spin is already in progress")

	// ErrUnknownMovie is returned when a toggle names a catalog ID that is
	// not part of the current result set.
	ErrUnknownMovie = errors.New("movie is not part of the current results")
)

// EventType discriminates engine events on the wire.
type EventType string

const (
	// EventPhase announces a phase transition.
	EventPhase EventType = "phase"
	// EventPreview carries one cosmetic preview pick during Selecting. The
	// stream has no bearing on the already-fixed winner.
	EventPreview EventType = "preview"
	// EventReveal carries the winner's base fields once detail fetching
	// has settled. Callers may render the poster, nothing more.
	EventReveal EventType = "reveal"
	// EventWinner carries the full winner detail once the spin settles.
	EventWinner EventType = "winner"
)

// Event is one discrete signal from the engine. Pacing decisions stay with
// the consumer; the engine only reports what happened.
type Event struct {
	Type    EventType            `json:"type"`
	Phase   Phase                `json:"phase"`
	Preview *models.Movie        `json:"preview,omitempty"`
	Winner  *models.WinnerDetail `json:"winner,omitempty"`
}

// Snapshot is the externally visible engine state. Winner detail is gated
// by phase: base fields from Revealing on, extended fields only once
// Settled.
type Snapshot struct {
	Phase     Phase                `json:"phase"`
	Selection []int                `json:"selection"`
	Winner    *models.WinnerDetail `json:"winner,omitempty"`
}
