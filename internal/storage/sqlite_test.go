package storage

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"urna/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	db.SetMaxOpenConns(1)

	s := New(db)
	if err := s.InitSchema(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return s, db
}

func mustCount(t *testing.T, db *sql.DB, q string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

func mustCreate(t *testing.T, s *Store, c domain.Candidate) {
	t.Helper()
	if err := s.CreateCandidate(c); err != nil {
		t.Fatalf("CreateCandidate(%d): %v", c.Number, err)
	}
}

func TestStore_GetCandidate(t *testing.T) {
	s, _ := newTestStore(t)

	mustCreate(t, s, domain.Candidate{Number: 13, Name: "A", Party: "P1"})

	c, err := s.GetCandidate(13)
	if err != nil {
		t.Fatalf("GetCandidate(13): %v", err)
	}
	if c.Number != 13 || c.Name != "A" || c.Party != "P1" {
		t.Fatalf("unexpected candidate: %+v", c)
	}

	// absent number -> ErrNotFound, not a failure
	_, err = s.GetCandidate(99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestStore_GetCandidate_NullParty(t *testing.T) {
	s, db := newTestStore(t)

	if _, err := db.Exec(`INSERT INTO candidatos(id, nome, partido) VALUES (7, 'Sem Partido', NULL)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	c, err := s.GetCandidate(7)
	if err != nil {
		t.Fatalf("GetCandidate(7): %v", err)
	}
	if c.Party != "" {
		t.Fatalf("expected empty party, got %q", c.Party)
	}
}

func TestStore_CreateCandidate_Rejects(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.CreateCandidate(domain.Candidate{Number: 0, Name: "X"}); err == nil {
		t.Fatalf("expected error for non-positive number")
	}
	if err := s.CreateCandidate(domain.Candidate{Number: 5, Name: "  "}); err == nil {
		t.Fatalf("expected error for empty name")
	}

	mustCreate(t, s, domain.Candidate{Number: 5, Name: "Ok"})
	if err := s.CreateCandidate(domain.Candidate{Number: 5, Name: "Dup"}); err == nil {
		t.Fatalf("expected error for duplicate number")
	}
}

func TestStore_ListCandidates_AscendingByNumber(t *testing.T) {
	s, _ := newTestStore(t)

	mustCreate(t, s, domain.Candidate{Number: 22, Name: "B", Party: "P2"})
	mustCreate(t, s, domain.Candidate{Number: 13, Name: "A", Party: "P1"})

	got, err := s.ListCandidates()
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(got) != 2 || got[0].Number != 13 || got[1].Number != 22 {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestStore_AppendVote_AndTally(t *testing.T) {
	s, _ := newTestStore(t)

	mustCreate(t, s, domain.Candidate{Number: 13, Name: "A", Party: "P1"})
	mustCreate(t, s, domain.Candidate{Number: 22, Name: "B", Party: "P2"})

	now := time.Unix(1_700_000_000, 0)
	choices := []domain.BallotChoice{
		domain.ValidChoice(13),
		domain.BlankChoice(),
		domain.ValidChoice(13),
		domain.NullChoice(),
	}
	for i, ch := range choices {
		rec, err := s.AppendVote(ch, now.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("AppendVote(%d): %v", i, err)
		}
		if rec.ID == 0 || rec.Choice != ch {
			t.Fatalf("unexpected record: %+v", rec)
		}
	}

	tally, err := s.Tally()
	if err != nil {
		t.Fatalf("Tally: %v", err)
	}
	if tally.ByCandidate[13] != 2 || tally.ByCandidate[22] != 0 {
		t.Fatalf("unexpected candidate tally: %+v", tally.ByCandidate)
	}
	if tally.Blank != 1 || tally.Null != 1 {
		t.Fatalf("blank=%d null=%d, want 1/1", tally.Blank, tally.Null)
	}
	if got := tally.Total(); got != int64(len(choices)) {
		t.Fatalf("Total=%d, want %d", got, len(choices))
	}
}

func TestStore_AppendVote_NullCandidateColumn(t *testing.T) {
	s, db := newTestStore(t)

	if _, err := s.AppendVote(domain.BlankChoice(), time.Now()); err != nil {
		t.Fatalf("AppendVote(blank): %v", err)
	}
	if _, err := s.AppendVote(domain.NullChoice(), time.Now()); err != nil {
		t.Fatalf("AppendVote(null): %v", err)
	}

	// non-valid kinds must never reference a candidate
	if got := mustCount(t, db, `SELECT COUNT(*) FROM votos WHERE candidato_id IS NULL`); got != 2 {
		t.Fatalf("expected 2 rows with NULL candidato_id, got %d", got)
	}
	if got := mustCount(t, db, `SELECT COUNT(*) FROM votos WHERE voto_tipo = 'BRANCO'`); got != 1 {
		t.Fatalf("expected 1 BRANCO row, got %d", got)
	}
	if got := mustCount(t, db, `SELECT COUNT(*) FROM votos WHERE voto_tipo = 'NULO'`); got != 1 {
		t.Fatalf("expected 1 NULO row, got %d", got)
	}
}

func TestStore_AppendVote_RejectsUnknownKind(t *testing.T) {
	s, db := newTestStore(t)

	if _, err := s.AppendVote(domain.BallotChoice{Kind: "WAT"}, time.Now()); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if got := mustCount(t, db, `SELECT COUNT(*) FROM votos`); got != 0 {
		t.Fatalf("expected no rows, got %d", got)
	}
}

func TestStore_Tally_IdempotentRead(t *testing.T) {
	s, _ := newTestStore(t)

	mustCreate(t, s, domain.Candidate{Number: 13, Name: "A", Party: "P1"})
	if _, err := s.AppendVote(domain.ValidChoice(13), time.Now()); err != nil {
		t.Fatalf("AppendVote: %v", err)
	}

	t1, err := s.Tally()
	if err != nil {
		t.Fatalf("Tally #1: %v", err)
	}
	t2, err := s.Tally()
	if err != nil {
		t.Fatalf("Tally #2: %v", err)
	}
	if t1.Total() != t2.Total() || t1.ByCandidate[13] != t2.ByCandidate[13] || t1.Blank != t2.Blank || t1.Null != t2.Null {
		t.Fatalf("tallies differ: %+v vs %+v", t1, t2)
	}
}

func TestStore_Tally_SurvivesCandidateRemoval(t *testing.T) {
	s, db := newTestStore(t)

	mustCreate(t, s, domain.Candidate{Number: 13, Name: "A", Party: "P1"})
	if _, err := s.AppendVote(domain.ValidChoice(13), time.Now()); err != nil {
		t.Fatalf("AppendVote: %v", err)
	}

	// external provisioning removes the candidate; the vote must remain
	if _, err := db.Exec(`DELETE FROM candidatos WHERE id = 13`); err != nil {
		t.Fatalf("delete candidate: %v", err)
	}

	tally, err := s.Tally()
	if err != nil {
		t.Fatalf("Tally: %v", err)
	}
	if tally.ByCandidate[13] != 1 {
		t.Fatalf("vote lost after candidate removal: %+v", tally)
	}
}
