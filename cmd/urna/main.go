package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"urna/internal/app"
	"urna/internal/config"
	"urna/internal/console"
	"urna/internal/report"
	"urna/internal/session"
	"urna/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("config: ", err)
	}

	logg := logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetOutput(os.Stderr)
	if cfg.Debug {
		logg.SetLevel(logrus.DebugLevel)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		logg.Fatal("open db: ", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := storage.New(db)
	if err := store.InitSchema(); err != nil {
		logg.Fatal("init schema: ", err)
	}

	sess := session.New(store, store, cfg.MaxDigits)
	display := console.NewDisplay(os.Stdout, cfg.EndDelay)
	bell := console.NewBell(os.Stdout)
	application := app.New(sess, display, bell, logg)

	events := make(chan app.Event)
	go readInput(ctx, os.Stdin, events, store, logg)

	application.Run(ctx, events)
	logg.Info("urna stopped")
}

// readInput turns stdin lines into keypad events. Digits feed the session
// one by one; branco/corrige/confirma map to the special keys; "relatorio
// <path>" is the admin export and "sair" shuts the terminal down.
func readInput(ctx context.Context, r io.Reader, events chan<- app.Event, store *storage.Store, logg *logrus.Logger) {
	defer close(events)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch fields := strings.Fields(strings.ToLower(line)); fields[0] {
		case "branco":
			events <- app.Event{Kind: app.EventBranco}
		case "corrige":
			events <- app.Event{Kind: app.EventCorrige}
		case "confirma":
			events <- app.Event{Kind: app.EventConfirma}
		case "relatorio":
			if len(fields) < 2 {
				fmt.Println("uso: relatorio <arquivo.csv>")
				continue
			}
			exportReport(fields[1], store, logg)
		case "sair":
			return
		default:
			if !allDigits(line) {
				fmt.Println("comandos: 0-9, branco, corrige, confirma, relatorio <arquivo>, sair")
				continue
			}
			for _, d := range line {
				events <- app.Event{Kind: app.EventDigit, Digit: d}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		logg.Error("read input: ", err)
	}
}

func exportReport(path string, store *storage.Store, logg *logrus.Logger) {
	tally, err := store.Tally()
	if err != nil {
		logg.Error("tally: ", err)
		fmt.Println("erro ao apurar votos")
		return
	}
	candidates, err := store.ListCandidates()
	if err != nil {
		logg.Error("list candidates: ", err)
		fmt.Println("erro ao listar candidatos")
		return
	}
	if err := report.SaveCSV(path, tally, candidates); err != nil {
		logg.Error("export: ", err)
		fmt.Println("erro ao salvar relatório")
		return
	}
	fmt.Printf("relatório salvo em %s (%d votos)\n", path, tally.Total())
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
