package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"urna/internal/domain"
)

//go:embed schema.sql
var embeddedSchema embed.FS

var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InitSchema() error {
	b, err := embeddedSchema.ReadFile("schema.sql")
	if err != nil {
		return err
	}

	schema := strings.TrimSpace(string(b))
	_, err = s.db.Exec(schema)
	return err
}

// ---------- Candidatos ----------

// GetCandidate returns ErrNotFound when the number is not registered;
// that is a normal outcome, not a failure.
func (s *Store) GetCandidate(number int) (*domain.Candidate, error) {
	row := s.db.QueryRow(`SELECT id, nome, IFNULL(partido, '') FROM candidatos WHERE id = ?`, number)
	var c domain.Candidate
	if err := row.Scan(&c.Number, &c.Name, &c.Party); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListCandidates() ([]domain.Candidate, error) {
	rows, err := s.db.Query(`SELECT id, nome, IFNULL(partido, '') FROM candidatos ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.Number, &c.Name, &c.Party); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return candidates, nil
}

// CreateCandidate is the provisioning write used by the seed tool.
// The voting core only reads candidates.
func (s *Store) CreateCandidate(c domain.Candidate) error {
	if c.Number <= 0 {
		return fmt.Errorf("candidate number must be positive, got %d", c.Number)
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("candidate name must not be empty")
	}
	_, err := s.db.Exec(`INSERT INTO candidatos(id, nome, partido) VALUES (?, ?, ?)`, c.Number, c.Name, c.Party)
	return err
}

// ---------- Votos ----------

// AppendVote persists one confirmed ballot as a single INSERT. The choice
// is not checked against candidatos: the session already validated it, and
// a candidate removed later must not invalidate recorded votes.
func (s *Store) AppendVote(choice domain.BallotChoice, recordedAt time.Time) (domain.VoteRecord, error) {
	var candidateVal any
	switch choice.Kind {
	case domain.VoteValid:
		candidateVal = choice.CandidateNumber
	case domain.VoteBlank, domain.VoteNull:
		candidateVal = nil
	default:
		return domain.VoteRecord{}, fmt.Errorf("unknown vote kind %q", choice.Kind)
	}

	res, err := s.db.Exec(
		`INSERT INTO votos(candidato_id, voto_tipo, created_at) VALUES (?, ?, ?)`,
		candidateVal, string(choice.Kind), recordedAt.UTC(),
	)
	if err != nil {
		return domain.VoteRecord{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.VoteRecord{}, err
	}
	return domain.VoteRecord{ID: id, Choice: choice, RecordedAt: recordedAt}, nil
}

// Tally aggregates the votos rows. The log is the only source of truth;
// no counter exists outside this query.
func (s *Store) Tally() (domain.Tally, error) {
	rows, err := s.db.Query(`
SELECT voto_tipo, candidato_id, COUNT(*)
FROM votos
GROUP BY voto_tipo, candidato_id
`)
	if err != nil {
		return domain.Tally{}, err
	}
	defer rows.Close()

	t := domain.NewTally()
	for rows.Next() {
		var kind string
		var candidate sql.NullInt64
		var n int64
		if err := rows.Scan(&kind, &candidate, &n); err != nil {
			return domain.Tally{}, err
		}
		switch domain.VoteKind(kind) {
		case domain.VoteValid:
			if !candidate.Valid {
				return domain.Tally{}, fmt.Errorf("valid vote row without candidato_id (count %d)", n)
			}
			t.ByCandidate[int(candidate.Int64)] += n
		case domain.VoteBlank:
			t.Blank += n
		case domain.VoteNull:
			t.Null += n
		default:
			return domain.Tally{}, fmt.Errorf("unknown voto_tipo %q in vote log", kind)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Tally{}, err
	}
	return t, nil
}
