// Package app wires input events to the voter session and its side
// effects. All transitions are serialized: rapid repeated presses can
// never append twice for one session.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"urna/internal/session"
)

// Display renders every session update, and once told the session is
// ending must eventually invoke done so the terminal resets for the
// next voter.
type Display interface {
	ShowSession(u session.Update)
	SessionEnding(done func())
}

// Notifier plays the confirmation cue. Fire-and-forget; the ballot is
// already durable when it fires.
type Notifier interface {
	Confirmed()
}

type EventKind int

const (
	EventDigit EventKind = iota
	EventBranco
	EventCorrige
	EventConfirma
)

type Event struct {
	Kind  EventKind
	Digit rune
}

type App struct {
	sess     *session.Session
	display  Display
	notifier Notifier
	log      *logrus.Logger

	mu        sync.Mutex
	ending    bool
	sessionID string
}

func New(sess *session.Session, display Display, notifier Notifier, log *logrus.Logger) *App {
	return &App{
		sess:      sess,
		display:   display,
		notifier:  notifier,
		log:       log,
		sessionID: uuid.NewString(),
	}
}

// Run consumes input events until the context ends or the channel closes.
// Events are applied one at a time, in arrival order.
func (a *App) Run(ctx context.Context, events <-chan Event) {
	a.display.ShowSession(a.snapshot())

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			a.Dispatch(ev)
		}
	}
}

func (a *App) Dispatch(ev Event) {
	switch ev.Kind {
	case EventDigit:
		a.OnDigit(ev.Digit)
	case EventBranco:
		a.OnBranco()
	case EventCorrige:
		a.OnCorrige()
	case EventConfirma:
		a.OnConfirma()
	}
}

func (a *App) snapshot() session.Update {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sess.Snapshot()
}

func (a *App) OnDigit(d rune) {
	a.mu.Lock()
	if a.ending {
		a.mu.Unlock()
		return
	}
	u, err := a.sess.PressDigit(d)
	sid := a.sessionID
	a.mu.Unlock()

	if err != nil {
		// registry read failed; the digit was undone, voter may retype
		a.log.WithField("session", sid).Error("candidate lookup: ", err)
	}
	a.display.ShowSession(u)
}

func (a *App) OnBranco() {
	a.mu.Lock()
	if a.ending {
		a.mu.Unlock()
		return
	}
	u := a.sess.PressBranco()
	a.mu.Unlock()

	a.display.ShowSession(u)
}

func (a *App) OnCorrige() {
	a.mu.Lock()
	if a.ending {
		a.mu.Unlock()
		return
	}
	u := a.sess.PressCorrige()
	a.mu.Unlock()

	a.display.ShowSession(u)
}

func (a *App) OnConfirma() {
	a.mu.Lock()
	if a.ending {
		a.mu.Unlock()
		return
	}
	u, rec, err := a.sess.PressConfirma(time.Now())
	sid := a.sessionID
	if rec != nil {
		a.ending = true
	}
	a.mu.Unlock()

	if err != nil {
		if errors.Is(err, session.ErrNoInput) || errors.Is(err, session.ErrIncompleteInput) {
			a.log.WithField("session", sid).Debug("confirma rejected: ", err)
		} else {
			// ledger append failed; state untouched, voter may press again
			a.log.WithField("session", sid).Error("append vote: ", err)
		}
		a.display.ShowSession(u)
		return
	}

	a.display.ShowSession(u)
	if rec == nil {
		// unmatched number now awaiting the explicit null confirmation
		return
	}

	// digits and candidate numbers are deliberately absent from the log
	a.log.WithFields(logrus.Fields{
		"session": sid,
		"kind":    string(rec.Choice.Kind),
	}).Info("ballot recorded")

	go a.safeNotify(sid)
	a.display.SessionEnding(a.finishSession)
}

// finishSession runs the Terminal → Idle reset, at most once per recorded
// ballot even if the display calls back more than once.
func (a *App) finishSession() {
	a.mu.Lock()
	if !a.ending {
		a.mu.Unlock()
		return
	}
	a.ending = false
	u := a.sess.Reset()
	a.sessionID = uuid.NewString()
	a.mu.Unlock()

	a.display.ShowSession(u)
}

func (a *App) safeNotify(sid string) {
	defer func() {
		if r := recover(); r != nil {
			a.log.WithField("session", sid).Warn("notifier: ", r)
		}
	}()
	a.notifier.Confirmed()
}
