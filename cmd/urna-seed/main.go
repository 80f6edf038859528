// urna-seed loads candidates into the registry from a CSV file of
// number,name,party rows. Provisioning is an admin step; the terminal
// itself never writes candidates.
package main

import (
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"urna/internal/domain"
	"urna/internal/storage"
)

func main() {
	dbPath := flag.String("db", "data/votos.db", "path to the votos database")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: urna-seed [-db path] candidates.csv")
		os.Exit(2)
	}

	db, err := sql.Open("sqlite3", *dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	store := storage.New(db)
	if err := store.InitSchema(); err != nil {
		log.Fatalf("init schema: %v", err)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("open candidates file: %v", err)
	}
	defer f.Close()

	n, err := seed(store, f)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seeded %d candidate(s)", n)
}

func seed(store *storage.Store, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	count := 0
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		if len(rec) < 2 || len(rec) > 3 {
			return count, fmt.Errorf("line %d: want number,name[,party], got %d field(s)", line, len(rec))
		}

		number, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return count, fmt.Errorf("line %d: bad candidate number %q", line, rec[0])
		}

		c := domain.Candidate{Number: number, Name: strings.TrimSpace(rec[1])}
		if len(rec) == 3 {
			c.Party = strings.TrimSpace(rec[2])
		}

		if err := store.CreateCandidate(c); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		count++
	}
}
