package domain

import "time"

// Candidate is one entry of the registry, keyed by the number
// the voter types on the keypad.
type Candidate struct {
	Number int
	Name   string
	Party  string
}

// VoteKind is the stored classification of a ballot.
type VoteKind string

const (
	VoteValid VoteKind = "VALIDO"
	VoteBlank VoteKind = "BRANCO"
	VoteNull  VoteKind = "NULO"
)

// BallotChoice is a tagged value: CandidateNumber is meaningful only
// when Kind is VoteValid.
type BallotChoice struct {
	Kind            VoteKind
	CandidateNumber int
}

func ValidChoice(number int) BallotChoice {
	return BallotChoice{Kind: VoteValid, CandidateNumber: number}
}

func BlankChoice() BallotChoice {
	return BallotChoice{Kind: VoteBlank}
}

func NullChoice() BallotChoice {
	return BallotChoice{Kind: VoteNull}
}

// VoteRecord is one persisted ballot. Never mutated after append.
type VoteRecord struct {
	ID         int64
	Choice     BallotChoice
	RecordedAt time.Time
}

// Tally aggregates the vote log. Blank and Null are kept as their own
// buckets, never attributed to a candidate.
type Tally struct {
	ByCandidate map[int]int64
	Blank       int64
	Null        int64
}

func NewTally() Tally {
	return Tally{ByCandidate: make(map[int]int64)}
}

// Total is the number of ballots the tally accounts for.
func (t Tally) Total() int64 {
	total := t.Blank + t.Null
	for _, n := range t.ByCandidate {
		total += n
	}
	return total
}
