// Package settings patches the host settings file: control-surface rate and web-server slot.
package settings

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/frzz/prompter-installer/internal/config"
	"github.com/frzz/prompter-installer/internal/lines"
	"github.com/frzz/prompter-installer/internal/netaddr"
)

// ErrMissing is returned when the settings file does not exist
var ErrMissing = errors.New("settings file not found")

// RateOutcome describes what EnforceRate did
type RateOutcome int

const (
	RateOK RateOutcome = iota
	RateRaised
	RateInvalid
	RateAdded
	// RateAppended means the rate line was added at the end because the section header is missing
	RateAppended
)

func (o RateOutcome) String() string {
	switch o {
	case RateOK:
		return "ok"
	case RateRaised:
		return "raised to minimum"
	case RateInvalid:
		return "invalid value replaced"
	case RateAdded:
		return "added"
	case RateAppended:
		return "appended without section"
	}
	return "unknown"
}

// EnforceRate makes sure the control-surface rate is at least b.MinRate.
// Only the first rate line is considered.
func EnforceRate(buf *lines.Buffer, b config.Bundle) (*lines.Buffer, RateOutcome) {
	prefix := b.RateKey + "="
	want := fmt.Sprintf("%s%d", prefix, b.MinRate)

	i := buf.Index(func(s string) bool { return strings.HasPrefix(s, prefix) })
	if i != -1 {
		value, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(buf.Trimmed(i), prefix)))
		switch {
		case err != nil:
			return buf.Replace(i, want), RateInvalid
		case value < b.MinRate:
			return buf.Replace(i, want), RateRaised
		}
		return buf, RateOK
	}

	if header := buf.SectionIndex(b.Section); header != -1 {
		return buf.InsertAfter(header, want), RateAdded
	}
	return buf.Append(want), RateAppended
}

// Slot is one indexed control-surface entry
type Slot struct {
	Index     int
	Transport string
	Port      int
	File      string
}

// Line renders the slot as a settings line
func (s Slot) Line(prefix string) string {
	return fmt.Sprintf("%s%d=%s 0 %d '' '%s' 1 ''", prefix, s.Index, s.Transport, s.Port, s.File)
}

func slotPattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\d+)=`)
}

// FindWebServer returns the index of the line registering the bundle's web page, or -1
func FindWebServer(buf *lines.Buffer, b config.Bundle) int {
	quoted := "'" + b.WebPage + "'"
	return buf.Index(func(s string) bool {
		return strings.HasPrefix(s, b.SlotPrefix) && strings.Contains(s, quoted)
	})
}

// SlotIndices returns the index of every slot line in file order
func SlotIndices(buf *lines.Buffer, b config.Bundle) []int {
	re := slotPattern(b.SlotPrefix)
	var out []int
	for i := 0; i < buf.Len(); i++ {
		m := re.FindStringSubmatch(buf.Trimmed(i))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// NextSlotIndex returns one more than the highest slot index, or 0 without slots
func NextSlotIndex(buf *lines.Buffer, b config.Bundle) int {
	next := 0
	for _, n := range SlotIndices(buf, b) {
		if n+1 > next {
			next = n + 1
		}
	}
	return next
}

// RegisterWebServer adds a slot serving the bundle's web page on port.
//
// The slot goes right after the last existing slot line, or after the section header,
// or at the end of the file. The count line is set to index+1; when missing it is
// inserted directly before the new slot.
func RegisterWebServer(buf *lines.Buffer, b config.Bundle, port int) (*lines.Buffer, Slot) {
	slot := Slot{
		Index:     NextSlotIndex(buf, b),
		Transport: b.Transport,
		Port:      port,
		File:      b.WebPage,
	}
	countLine := fmt.Sprintf("%s=%d", b.CountKey, slot.Index+1)

	re := slotPattern(b.SlotPrefix)
	lastSlot := buf.LastIndex(re.MatchString)

	countPrefix := b.CountKey + "="
	texts := []string{slot.Line(b.SlotPrefix)}
	if i := buf.Index(func(s string) bool { return strings.HasPrefix(s, countPrefix) }); i != -1 {
		buf = buf.Replace(i, countLine)
	} else {
		texts = append([]string{countLine}, texts...)
	}

	if lastSlot != -1 {
		return buf.InsertAfter(lastSlot, texts...), slot
	}
	if header := buf.SectionIndex(b.Section); header != -1 {
		return buf.InsertAfter(header, texts...), slot
	}
	return buf.Append(texts...), slot
}

// Asker obtains the user's consent and a port for a new web server
type Asker interface {
	Confirm(question string) (bool, error)
	Port(question string) (int, error)
}

// FixedPort answers without user interaction. A zero port declines registration.
type FixedPort int

// Confirm reports whether a port was preset
func (f FixedPort) Confirm(string) (bool, error) {
	return f != 0, nil
}

// Port returns the preset port
func (f FixedPort) Port(string) (int, error) {
	return int(f), nil
}

// WebServerOutcome describes what happened to the web-server slot
type WebServerOutcome int

const (
	WebServerPresent WebServerOutcome = iota
	WebServerRegistered
	WebServerDeclined
)

// Result summarizes one settings patch
type Result struct {
	Rate      RateOutcome
	WebServer WebServerOutcome
	Slot      Slot
	LocalIP   string
	PortBusy  bool
	Written   bool
}

// Patcher applies rate enforcement and web-server registration to the settings file
type Patcher struct {
	Bundle config.Bundle
	Asker  Asker
	Probe  netaddr.Probe
	Log    zerolog.Logger

	// PortInUse checks the chosen port after registration; nil skips the check
	PortInUse func(port int) bool
}

// NewPatcher creates a settings patcher using the UDP address probe
func NewPatcher(b config.Bundle, asker Asker, log zerolog.Logger) *Patcher {
	return &Patcher{
		Bundle:    b,
		Asker:     asker,
		Probe:     netaddr.UDPProbe{},
		Log:       log,
		PortInUse: netaddr.PortInUse,
	}
}

// Patch updates the settings file at path and writes it once if anything changed
func (p *Patcher) Patch(path string) (*Result, error) {
	orig, exists, err := lines.Read(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrMissing, path)
	}

	result := &Result{}
	buf, rate := EnforceRate(orig, p.Bundle)
	result.Rate = rate
	p.Log.Debug().Stringer("outcome", rate).Msg("control surface rate checked")

	if i := FindWebServer(buf, p.Bundle); i != -1 {
		result.WebServer = WebServerPresent
		p.Log.Debug().Int("line", i+1).Msg("web server already registered")
	} else {
		ok, err := p.Asker.Confirm(fmt.Sprintf("Create a web server for %s?", p.Bundle.WebPage))
		if err != nil {
			return nil, fmt.Errorf("failed to read answer: %w", err)
		}
		if ok {
			port, err := p.Asker.Port("Enter the web server port (for example, 8080)")
			if err != nil {
				return nil, fmt.Errorf("failed to read port: %w", err)
			}
			buf, result.Slot = RegisterWebServer(buf, p.Bundle, port)
			result.WebServer = WebServerRegistered
			p.Log.Info().Int("index", result.Slot.Index).Int("port", port).Msg("web server slot added")
		} else {
			result.WebServer = WebServerDeclined
		}
	}

	written, err := lines.WriteIfChanged(path, orig, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to write settings file: %w", err)
	}
	result.Written = written

	if result.WebServer == WebServerRegistered {
		result.LocalIP = p.Probe.LocalIP()
		if p.PortInUse != nil {
			result.PortBusy = p.PortInUse(result.Slot.Port)
		}
	}

	return result, nil
}
