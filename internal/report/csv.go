// Package report renders the official tally as CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"urna/internal/domain"
)

// Header is the fixed first row of the export.
var Header = []string{"candidato_id", "nome", "partido", "votos"}

// UnknownName labels vote rows whose candidate was removed from the
// registry after the votes were cast.
const UnknownName = "<desconhecido>"

// WriteCSV writes one row per registered candidate ascending by number
// (count 0 when unvoted), one row per voted number missing from the
// registry, a BRANCO row, and a NULO row when any null ballots exist.
func WriteCSV(w io.Writer, tally domain.Tally, candidates []domain.Candidate) error {
	cw := csv.NewWriter(w)

	cw.Write(Header)

	seen := make(map[int]bool, len(candidates))
	ordered := make([]domain.Candidate, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })

	for _, c := range ordered {
		seen[c.Number] = true
		cw.Write([]string{
			strconv.Itoa(c.Number),
			c.Name,
			c.Party,
			strconv.FormatInt(tally.ByCandidate[c.Number], 10),
		})
	}

	var orphans []int
	for number := range tally.ByCandidate {
		if !seen[number] {
			orphans = append(orphans, number)
		}
	}
	sort.Ints(orphans)
	for _, number := range orphans {
		cw.Write([]string{
			strconv.Itoa(number),
			UnknownName,
			"",
			strconv.FormatInt(tally.ByCandidate[number], 10),
		})
	}

	cw.Write([]string{"BRANCO", "BRANCO", "", strconv.FormatInt(tally.Blank, 10)})
	if tally.Null > 0 {
		cw.Write([]string{"NULO", "NULO", "", strconv.FormatInt(tally.Null, 10)})
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the export to path. Failures never touch ledger state.
func SaveCSV(path string, tally domain.Tally, candidates []domain.Candidate) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteCSV(f, tally, candidates); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}
