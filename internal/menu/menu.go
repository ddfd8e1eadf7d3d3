// Package menu is the line-oriented interactive front end. It asks which
// trigger to use, re-prompts until every answer validates, and returns the
// trigger for the scheduler to arm.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"shutdowner/internal/process"
	"shutdowner/internal/trigger"
	logx "shutdowner/pkg/logx"
)

// ErrAborted is returned when input ends before a trigger is complete.
var ErrAborted = errors.New("menu: input closed")

// Picker chooses one process from a list (the TUI implements it).
type Picker interface {
	Pick(ctx context.Context, records []process.Record) (process.Record, error)
}

type Option func(*Menu)

// WithClock overrides the wall clock used to validate "<D> <HH>:<MM>".
func WithClock(now func() time.Time) Option { return func(m *Menu) { m.now = now } }

// WithPicker replaces the numbered process list with p.
func WithPicker(p Picker) Option { return func(m *Menu) { m.picker = p } }

func WithLogger(log logx.Logger) Option { return func(m *Menu) { m.log = log } }

type Menu struct {
	in     *bufio.Scanner
	out    io.Writer
	source process.Source
	picker Picker
	now    func() time.Time
	log    logx.Logger

	title lipgloss.Style
	warn  lipgloss.Style
	ok    lipgloss.Style
}

func New(in io.Reader, out io.Writer, source process.Source, opts ...Option) *Menu {
	m := &Menu{
		in:     bufio.NewScanner(in),
		out:    out,
		source: source,
		now:    time.Now,
		log:    logx.Nop(),
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.With(logx.String("comp", "menu"))
	return m
}

// Run asks for a trigger kind and its parameters.
func (m *Menu) Run(ctx context.Context) (trigger.Trigger, error) {
	m.println(m.title.Render("Do you want to..."))
	m.println("1. Shutdown the computer on a timer")
	m.println("2. Shutdown after a process stops")
	m.println("3. Shutdown at a particular local time")

	choice, err := m.askInt("> ", 3, "Sorry, that's not a valid option, try again")
	if err != nil {
		return nil, err
	}
	switch choice {
	case 1:
		return m.delay()
	case 2:
		return m.processWatch(ctx)
	default:
		return m.absoluteTime()
	}
}

func (m *Menu) delay() (trigger.Trigger, error) {
	minutes, err := m.askInt(
		fmt.Sprintf("Type how much time in minutes should pass before the shut down (1-%d): ", trigger.MaxDelayMinutes),
		trigger.MaxDelayMinutes,
		fmt.Sprintf("Can only select between 1 to %d minutes (a full day)", trigger.MaxDelayMinutes),
	)
	if err != nil {
		return nil, err
	}
	return trigger.NewDelay(minutes)
}

func (m *Menu) processWatch(ctx context.Context) (trigger.Trigger, error) {
	snap, err := m.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	records := snap.Records()
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no processes listed", process.ErrListingUnavailable)
	}

	var target process.Record
	if m.picker != nil {
		target, err = m.picker.Pick(ctx, records)
		if err != nil {
			return nil, err
		}
	} else {
		m.println("Here's a numbered list of the current tasks:")
		m.println("")
		m.printf("%s", FormatList(records))
		n, err := m.askInt("\nType the number in this list associated with the task you want to track: ",
			len(records), "Sorry, but that's not in the list, try again")
		if err != nil {
			return nil, err
		}
		target = records[n-1]
	}
	m.println(m.ok.Render(fmt.Sprintf("You selected: '%s'", target)))

	interval, err := m.askInt(
		fmt.Sprintf("Monitoring that process now. How many minutes between each check (1-%d minutes)? ", trigger.MaxCheckIntervalMinutes),
		trigger.MaxCheckIntervalMinutes,
		fmt.Sprintf("Checks are only available once every 1 to %d minutes, try again", trigger.MaxCheckIntervalMinutes),
	)
	if err != nil {
		return nil, err
	}
	return trigger.NewProcessWatch(target, interval)
}

func (m *Menu) absoluteTime() (trigger.Trigger, error) {
	m.println("What local datetime would you like the computer to start shutting down?")
	m.println(fmt.Sprintf("Please use the following format: '<0-%d days since today> HH:mm'", trigger.MaxDays))
	m.println("Example: 2 05:27. This would make the computer shut down at 5:27 2 days from today.")
	for {
		line, err := m.readLine("> ")
		if err != nil {
			return nil, err
		}
		at, err := trigger.NewAbsoluteTime(line, m.now())
		if err != nil {
			m.println(m.warn.Render(describe(err)))
			continue
		}
		m.println(m.ok.Render(fmt.Sprintf("Shutting down on the following date time: %s at %s",
			at.At.Format("2006-01-02"), at.At.Format("15:04"))))
		m.println("Do not close the program until then")
		return at, nil
	}
}

// askInt re-prompts until the answer is an integer in 1..upper.
func (m *Menu) askInt(prompt string, upper int, errMsg string) (int, error) {
	for {
		line, err := m.readLine(prompt)
		if err != nil {
			return 0, err
		}
		n, err := trigger.ParseBoundedInt(line, upper)
		if err != nil {
			m.log.Debug("rejected input", logx.String("input", line), logx.Err(err))
			m.println(m.warn.Render(errMsg))
			continue
		}
		return n, nil
	}
}

func (m *Menu) readLine(prompt string) (string, error) {
	m.printf("%s", prompt)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", ErrAborted, err)
		}
		return "", ErrAborted
	}
	return m.in.Text(), nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, trigger.ErrNotInFuture):
		return "That time has already passed today, try again"
	case errors.Is(err, trigger.ErrInvalidTime):
		return "Hours go from 0 to 23 and minutes from 0 to 59, try again"
	default:
		return "That doesn't match '<days> HH:mm', try again"
	}
}

// FormatList renders records as the numbered list the menu and `ps` print.
func FormatList(records []process.Record) string {
	var b strings.Builder
	for i, r := range records {
		fmt.Fprintf(&b, "%d--> %s\n", i+1, r)
	}
	return b.String()
}

func (m *Menu) println(s string)                  { fmt.Fprintln(m.out, s) }
func (m *Menu) printf(format string, args ...any) { fmt.Fprintf(m.out, format, args...) }
