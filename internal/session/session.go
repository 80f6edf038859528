// Package session holds the voter-session state machine: digit entry,
// correction, blank selection and the one-or-two-step confirmation that
// ends in exactly one ledger append.
package session

import (
	"errors"
	"strconv"
	"time"

	"urna/internal/domain"
	"urna/internal/storage"
)

type State int

const (
	StateIdle State = iota
	StateEntering
	StateComplete
	StateBlank
	StateNullConfirm
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEntering:
		return "entering"
	case StateComplete:
		return "complete"
	case StateBlank:
		return "blank"
	case StateNullConfirm:
		return "null_confirm"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// User-correctable guards. Never advance state, never write.
var (
	ErrNoInput         = errors.New("no digits entered")
	ErrIncompleteInput = errors.New("incomplete number entered")
)

// Registry resolves keyed-in numbers to candidates. Absence is signalled
// with storage.ErrNotFound.
type Registry interface {
	GetCandidate(number int) (*domain.Candidate, error)
}

// Ledger records confirmed ballots.
type Ledger interface {
	AppendVote(choice domain.BallotChoice, recordedAt time.Time) (domain.VoteRecord, error)
}

// Update is what a display needs after each transition.
type Update struct {
	State   State
	Digits  string
	Matched *domain.Candidate
}

// Session is the scratch state of one in-progress ballot. Not safe for
// concurrent use; the controller serializes access.
type Session struct {
	registry  Registry
	ledger    Ledger
	maxDigits int

	state   State
	digits  []byte
	matched *domain.Candidate
}

func New(registry Registry, ledger Ledger, maxDigits int) *Session {
	return &Session{
		registry:  registry,
		ledger:    ledger,
		maxDigits: maxDigits,
		state:     StateIdle,
	}
}

func (s *Session) State() State { return s.state }

func (s *Session) Snapshot() Update {
	return Update{State: s.state, Digits: string(s.digits), Matched: s.matched}
}

// PressDigit appends one digit. Reaching maxDigits triggers the candidate
// lookup. A registry failure undoes the digit so the session is never left
// in Complete without a lookup result.
func (s *Session) PressDigit(d rune) (Update, error) {
	if s.state != StateIdle && s.state != StateEntering {
		return s.Snapshot(), nil
	}
	if d < '0' || d > '9' {
		return s.Snapshot(), nil
	}

	s.digits = append(s.digits, byte(d))
	if len(s.digits) < s.maxDigits {
		s.state = StateEntering
		return s.Snapshot(), nil
	}

	number, err := strconv.Atoi(string(s.digits))
	if err != nil {
		// digits only, cannot happen
		s.digits = s.digits[:len(s.digits)-1]
		return s.Snapshot(), err
	}

	c, err := s.registry.GetCandidate(number)
	switch {
	case err == nil:
		s.matched = c
	case errors.Is(err, storage.ErrNotFound):
		s.matched = nil
	default:
		s.digits = s.digits[:len(s.digits)-1]
		if len(s.digits) == 0 {
			s.state = StateIdle
		} else {
			s.state = StateEntering
		}
		return s.Snapshot(), err
	}
	s.state = StateComplete
	return s.Snapshot(), nil
}

// PressCorrige discards everything typed so far. From NullConfirm this is
// the voter declining the null ballot.
func (s *Session) PressCorrige() Update {
	if s.state == StateTerminal {
		return s.Snapshot()
	}
	s.clear()
	return s.Snapshot()
}

// PressBranco selects a blank ballot, discarding any digits.
func (s *Session) PressBranco() Update {
	if s.state == StateTerminal {
		return s.Snapshot()
	}
	s.digits = nil
	s.matched = nil
	s.state = StateBlank
	return s.Snapshot()
}

// PressConfirma applies the confirmation transition. A non-nil record means
// exactly one ballot was appended and the session is now Terminal. A nil
// record with a nil error is the Complete(unmatched) → NullConfirm step.
// On a ledger failure the state is unchanged so the voter can retry.
func (s *Session) PressConfirma(now time.Time) (Update, *domain.VoteRecord, error) {
	switch s.state {
	case StateIdle:
		return s.Snapshot(), nil, ErrNoInput

	case StateEntering:
		return s.Snapshot(), nil, ErrIncompleteInput

	case StateBlank:
		return s.append(domain.BlankChoice(), now)

	case StateComplete:
		if s.matched == nil {
			s.state = StateNullConfirm
			return s.Snapshot(), nil, nil
		}
		return s.append(domain.ValidChoice(s.matched.Number), now)

	case StateNullConfirm:
		return s.append(domain.NullChoice(), now)

	default: // StateTerminal
		return s.Snapshot(), nil, nil
	}
}

func (s *Session) append(choice domain.BallotChoice, now time.Time) (Update, *domain.VoteRecord, error) {
	rec, err := s.ledger.AppendVote(choice, now)
	if err != nil {
		return s.Snapshot(), nil, err
	}
	s.state = StateTerminal
	return s.Snapshot(), &rec, nil
}

// Reset returns the session to Idle for the next voter. Called by the
// controller once the end-of-session presentation finishes.
func (s *Session) Reset() Update {
	s.clear()
	return s.Snapshot()
}

func (s *Session) clear() {
	s.digits = nil
	s.matched = nil
	s.state = StateIdle
}
