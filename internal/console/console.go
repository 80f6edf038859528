// Package console is the text-mode front of the terminal: a Display that
// prints session state and a Notifier that rings the bell. The voting core
// only sees the app.Display / app.Notifier interfaces.
package console

import (
	"fmt"
	"io"
	"sync"
	"time"

	"urna/internal/session"
)

type Display struct {
	mu       sync.Mutex
	out      io.Writer
	endDelay time.Duration
}

func NewDisplay(out io.Writer, endDelay time.Duration) *Display {
	return &Display{out: out, endDelay: endDelay}
}

func (d *Display) ShowSession(u session.Update) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch u.State {
	case session.StateIdle:
		fmt.Fprintln(d.out, "[--] digite o número do candidato")
	case session.StateEntering:
		fmt.Fprintf(d.out, "[%s]\n", u.Digits)
	case session.StateComplete:
		if u.Matched != nil {
			fmt.Fprintf(d.out, "[%s] %s (%s) - CONFIRMA para votar\n", u.Digits, u.Matched.Name, u.Matched.Party)
		} else {
			fmt.Fprintf(d.out, "[%s] candidato não encontrado\n", u.Digits)
		}
	case session.StateBlank:
		fmt.Fprintln(d.out, "[BRANCO] CONFIRMA para votar em branco")
	case session.StateNullConfirm:
		fmt.Fprintln(d.out, "candidato não encontrado: CONFIRMA vota NULO, CORRIGE cancela")
	case session.StateTerminal:
		fmt.Fprintln(d.out, "voto registrado")
	}
}

// SessionEnding shows the end screen and schedules the reset callback,
// like the reference terminal's short end-of-session animation.
func (d *Display) SessionEnding(done func()) {
	d.mu.Lock()
	fmt.Fprintln(d.out, "FIM")
	d.mu.Unlock()

	time.AfterFunc(d.endDelay, done)
}

// Bell is the confirmation cue: the terminal bell in place of the
// reference hardware's speaker.
type Bell struct {
	out io.Writer
}

func NewBell(out io.Writer) *Bell {
	return &Bell{out: out}
}

func (b *Bell) Confirmed() {
	fmt.Fprint(b.out, "\a")
}
