package pinmux

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"go.viam.com/pinmux/logging"
)

// ParseIndex reads a decimal integer from the start of buf. Leading whitespace and a sign are
// accepted and anything after the digits is ignored, so "2\n" and "2 please" both yield 2.
func ParseIndex(buf []byte) (int, error) {
	pos := 0
	for pos < len(buf) && isSpace(buf[pos]) {
		pos++
	}
	start := pos
	if pos < len(buf) && (buf[pos] == '-' || buf[pos] == '+') {
		pos++
	}
	digits := pos
	for pos < len(buf) && buf[pos] >= '0' && buf[pos] <= '9' {
		pos++
	}
	if pos == digits {
		return 0, errors.Wrapf(ErrInvalidInput, "%q", buf)
	}

	idx, err := strconv.Atoi(string(buf[start:pos]))
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, errors.Wrapf(ErrOutOfRange, "%s overflows", buf[start:pos])
		}
		return 0, errors.Wrapf(ErrInvalidInput, "%q", buf)
	}
	return idx, nil
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

// An Attribute is the text control surface of a device: reads report the active index and
// writes request a new one.
type Attribute struct {
	ctrl   *Controller
	strict bool
	logger logging.Logger
}

// NewAttribute returns the control surface for ctrl. A permissive attribute reports every write as
// fully consumed and only logs rejected requests; a strict one returns the rejection.
func NewAttribute(ctrl *Controller, strict bool, logger logging.Logger) *Attribute {
	return &Attribute{ctrl: ctrl, strict: strict, logger: logger}
}

// Strict returns whether write failures are returned to the writer.
func (a *Attribute) Strict() bool {
	return a.strict
}

// Show returns the active index followed by a newline.
func (a *Attribute) Show() string {
	return strconv.Itoa(a.ctrl.Query()) + "\n"
}

// Store parses buf and requests the resulting state. It returns the number of bytes consumed.
func (a *Attribute) Store(ctx context.Context, buf []byte) (int, error) {
	idx, err := ParseIndex(buf)
	if err == nil {
		err = a.ctrl.RequestState(ctx, idx)
	} else {
		a.logger.CDebugw(ctx, "ignoring pin_mux write", "device", a.ctrl.Name(), "error", err)
	}
	if err != nil && a.strict {
		return 0, err
	}
	return len(buf), nil
}
