package fix

import (
	"errors"
	"iter"
	"math"
	"strings"
)

var (
	ErrRelativePositioning = errors.New("relative positioning is not supported")
	ErrUnknownFeedRate     = errors.New("feed rate is unknown")
)

type Kind uint8

const (
	KindOther Kind = iota
	KindMotion
	KindFan
	KindBridge
	KindPositioning
	KindSetPosition
)

func (k Kind) String() string {
	switch k {
	case KindMotion:
		return "motion"
	case KindFan:
		return "fan"
	case KindBridge:
		return "bridge"
	case KindPositioning:
		return "positioning"
	case KindSetPosition:
		return "set-position"
	}
	return "other"
}

// Instruction is one line of the stream and what it was classified as.
// Block is nil for blank lines and comment-only lines.
type Instruction struct {
	Line  string
	Kind  Kind
	Block *GcodeBlock

	// Marker is set when the line carries a bridge-begin comment, either on
	// its own (KindBridge) or trailing a command.
	Marker bool

	// FanPWM is set for KindFan, 0..FanMaxPWM.
	FanPWM int
	// Relative is set for KindPositioning.
	Relative bool
}

// Classify parses a single line.
func Classify(line string, markers []string) Instruction {
	in := Instruction{Line: line}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return in
	}
	if trimmed[0] == ';' {
		if hasMarker(trimmed, markers) {
			in.Kind, in.Marker = KindBridge, true
		}
		return in
	}

	block, err := ParseGcodeBlock(trimmed)
	if err != nil || block.IsComment() {
		return in
	}
	in.Block = block
	in.Marker = hasMarker(block.Comment(), markers)

	switch {
	case block.IsAny("G0", "G1", "G2", "G3"):
		in.Kind = KindMotion
	case block.Is("G90"):
		in.Kind = KindPositioning
	case block.Is("G91"):
		in.Kind = KindPositioning
		in.Relative = true
	case block.IsAny("G92", "G28"):
		in.Kind = KindSetPosition
	case block.Is("M106"):
		if n, err := block.GetFanNum(); err != nil || n != 0 {
			return in
		}
		in.Kind = KindFan
		in.FanPWM = FanMaxPWM
		var s float64
		if err := block.GetParam('S', &s); err == nil {
			in.FanPWM = int(math.Round(math.Max(0, math.Min(s, FanMaxPWM))))
		}
	case block.Is("M107"):
		if n, err := block.GetFanNum(); err != nil || n != 0 {
			return in
		}
		in.Kind = KindFan
	}
	return in
}

// IsBridge reports whether a bridge begins at this line.
func (in Instruction) IsBridge() bool {
	return in.Marker
}

func hasMarker(comment string, markers []string) bool {
	if comment == "" {
		return false
	}
	for _, m := range markers {
		if m != "" && strings.HasPrefix(comment, m) {
			return true
		}
	}
	return false
}

// Program is a classified G-code stream with per-line estimated durations.
type Program struct {
	Instructions []Instruction

	// Duration in seconds for each instruction, 0 for anything that is not a timed move.
	Duration []float64
	// Invalid holds the reason a duration could not be estimated, nil otherwise.
	Invalid []error
}

// NewProgram classifies lines and estimates motion durations in one forward pass.
// defaultFeedRate (mm/min) is assumed until the first F word, 0 means unknown.
func NewProgram(lines []string, markers []string, defaultFeedRate float64) *Program {
	p := &Program{
		Instructions: make([]Instruction, len(lines)),
		Duration:     make([]float64, len(lines)),
		Invalid:      make([]error, len(lines)),
	}

	var (
		pos      [3]float64
		feed     = defaultFeedRate
		relative bool
	)

	for i, line := range lines {
		in := Classify(line, markers)
		p.Instructions[i] = in
		if in.IsBridge() && relative {
			p.Invalid[i] = ErrRelativePositioning
		}

		switch in.Kind {
		case KindPositioning:
			relative = in.Relative

		case KindSetPosition:
			if in.Block.Is("G28") {
				// homing an axis moves it to 0, no axis means all of them
				all := !in.Block.HasParam('X') && !in.Block.HasParam('Y') && !in.Block.HasParam('Z')
				for axis, w := range []byte("XYZ") {
					if all || in.Block.HasParam(w) {
						pos[axis] = 0
					}
				}
			} else {
				for axis, w := range []byte("XYZ") {
					if v, ok := in.Block.LookupFloat(w); ok {
						pos[axis] = v
					}
				}
			}

		case KindMotion:
			if f, ok := in.Block.LookupFloat('F'); ok {
				feed = f
			}
			next := pos
			for axis, w := range []byte("XYZ") {
				if v, ok := in.Block.LookupFloat(w); ok {
					if relative {
						v += pos[axis]
					}
					next[axis] = v
				}
			}
			if relative {
				// position is followed so absolute moves after G90 measure right,
				// the move itself is not timed
				pos = next
				p.Invalid[i] = ErrRelativePositioning
				continue
			}
			dist := travel(in.Block, pos, next)
			pos = next
			if dist <= 0 {
				continue
			}
			if feed <= 0 {
				p.Invalid[i] = ErrUnknownFeedRate
				continue
			}
			p.Duration[i] = dist / feed * 60.0
		}
	}
	return p
}

// BridgeStarts yields the index of every bridge-begin marker in document order.
func (p *Program) BridgeStarts() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range p.Instructions {
			if p.Instructions[i].IsBridge() && !yield(i) {
				return
			}
		}
	}
}

// travel returns the path length of a move from `from` to `to`.
// G2/G3 arcs are measured along the arc when I/J are given, R arcs and
// arcs without a center fall back to the chord.
func travel(b *GcodeBlock, from, to [3]float64) float64 {
	dx, dy, dz := to[0]-from[0], to[1]-from[1], to[2]-from[2]
	if !b.IsAny("G2", "G3") {
		return math.Sqrt(dx*dx + dy*dy + dz*dz)
	}

	ci, hasI := b.LookupFloat('I')
	cj, hasJ := b.LookupFloat('J')
	if !hasI && !hasJ {
		return math.Sqrt(dx*dx + dy*dy + dz*dz)
	}

	cx, cy := from[0]+ci, from[1]+cj
	r := math.Hypot(ci, cj)
	a0 := math.Atan2(from[1]-cy, from[0]-cx)
	a1 := math.Atan2(to[1]-cy, to[0]-cx)

	sweep := a1 - a0
	if b.Is("G2") { // clockwise
		if sweep >= 0 {
			sweep -= 2 * math.Pi
		}
	} else if sweep <= 0 {
		sweep += 2 * math.Pi
	}

	return math.Hypot(r*math.Abs(sweep), dz)
}
