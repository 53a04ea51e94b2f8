package repair

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/lakshaymaurya-felt/satreset/internal/ui"
)

const (
	warningBanner = "!!!!!!!!! WARNING: This utility should only be used as directed by Red Hat Support.\n" +
		"There is a risk of data loss during these cleanup routines and they should only be\n" +
		"used when directly instructed to do so !!!!!!!!!"
	confirmPrompt   = "Are you sure you want to run this (Y/N)? "
	cancelledNotice = "**** cancelled ****"
)

var affirmative = regexp.MustCompile(`(?i)^\s*y`)

// IsAffirmative reports whether an operator answer means yes.
func IsAffirmative(answer string) bool {
	return affirmative.MatchString(answer)
}

// Confirmer asks the operator to approve a workflow.
type Confirmer interface {
	Confirm(action Action) error
}

// Gate is the interactive Confirmer reading one line from in.
type Gate struct {
	in  *bufio.Reader
	out *ui.Printer
}

// NewGate returns a Gate reading answers from in and writing to out.
func NewGate(in io.Reader, out *ui.Printer) *Gate {
	return &Gate{in: bufio.NewReader(in), out: out}
}

// Confirm prints the warning and returns a *DeclinedError unless the answer
// is affirmative. Empty input and EOF decline.
func (g *Gate) Confirm(action Action) error {
	g.out.Print(ui.LevelError, "\n"+warningBanner)
	g.out.Print(ui.LevelInfo, "About to run: "+action.Title())
	g.out.Prompt(ui.LevelError, confirmPrompt)

	line, err := g.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		g.out.Print(ui.LevelError, cancelledNotice)
		return fmt.Errorf("failed to read confirmation: %w", err)
	}

	if !IsAffirmative(strings.TrimRight(line, "\r\n")) {
		g.out.Print(ui.LevelError, cancelledNotice)
		return &DeclinedError{Action: action}
	}
	return nil
}

var _ Confirmer = (*Gate)(nil)
