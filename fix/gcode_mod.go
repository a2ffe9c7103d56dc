package fix

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"fortio.org/safecast"
)

var ErrOptionOutOfRange = errors.New("option out of range")

// BridgeFanOptions controls GcodeSpinUpBridgeFan.
type BridgeFanOptions struct {
	// LeadTime is how many seconds before the bridge the fan is started.
	LeadTime float64
	// FanSpeed is the bridge fan speed in percent, 0..100.
	FanSpeed int
	// Markers are the comment prefixes that begin a bridge, DefaultMarkers when empty.
	Markers []string
	// DefaultFeedRate in mm/min is assumed until the first F word, 0 means unknown.
	DefaultFeedRate float64
}

func DefaultBridgeFanOptions() BridgeFanOptions {
	return BridgeFanOptions{
		LeadTime: DefaultLeadTime,
		FanSpeed: DefaultFanSpeed,
		Markers:  DefaultMarkers,
	}
}

func (o BridgeFanOptions) Validate() error {
	if math.IsNaN(o.LeadTime) || math.IsInf(o.LeadTime, 0) || o.LeadTime < 0 {
		return fmt.Errorf("%w: lead time %v, must be a non-negative number of seconds", ErrOptionOutOfRange, o.LeadTime)
	}
	if o.FanSpeed < 0 || o.FanSpeed > 100 {
		return fmt.Errorf("%w: fan speed %d%%, must be within 0-100", ErrOptionOutOfRange, o.FanSpeed)
	}
	if o.DefaultFeedRate < 0 {
		return fmt.Errorf("%w: default feed rate %v", ErrOptionOutOfRange, o.DefaultFeedRate)
	}
	return nil
}

// FanPWM converts FanSpeed to the M106 S range, truncating like the slicers do.
func (o BridgeFanOptions) FanPWM() (uint8, error) {
	return safecast.Conv[uint8](o.FanSpeed * FanMaxPWM / 100)
}

func (o BridgeFanOptions) markers() []string {
	if len(o.Markers) == 0 {
		return DefaultMarkers
	}
	return o.Markers
}

// FanCommand renders the line inserted ahead of a bridge.
func (o BridgeFanOptions) FanCommand() (string, error) {
	pwm, err := o.FanPWM()
	if err != nil {
		return "", err
	}
	b, err := NewGcodeBlock("M106")
	if err != nil {
		return "", err
	}
	if err = b.SetParam('S', pwm); err != nil {
		return "", err
	}
	b.SetComment("; %s (lead %ss)", Tag, strconv.FormatFloat(o.LeadTime, 'f', -1, 64))
	return b.String(), nil
}

type BridgeAction string

const (
	BridgeInserted BridgeAction = "inserted"
	BridgeCovered  BridgeAction = "covered"
	BridgeSkipped  BridgeAction = "skipped"
)

// BridgeResult describes what happened to one bridge occurrence.
// Index and InsertAt are 0-based positions in the input lines.
type BridgeResult struct {
	Index    int
	Action   BridgeAction
	InsertAt int
	// Lead is the motion time in seconds between InsertAt and the bridge.
	Lead float64
	// Partial is set when less than the requested lead time was available.
	Partial bool
	// Err is why the bridge was skipped.
	Err error
}

type BridgeFanReport struct {
	Bridges []BridgeResult
}

func (r *BridgeFanReport) Count(a BridgeAction) (n int) {
	for _, b := range r.Bridges {
		if b.Action == a {
			n++
		}
	}
	return n
}

/*
GcodeSpinUpBridgeFan inserts a part fan command ahead of every bridge so the
fan is already at speed when the bridge starts.

Walking back from a bridge marker, motion time is summed until it reaches the
lead time. The walk stops early at the start of the file, at a fan command
slower than the bridge speed or at an earlier bridge; the command then goes
right after that point. A fan command at least as fast as the bridge speed
inside the window means nothing has to be inserted, which makes the fix safe
to run twice. Bridges in relative positioning mode, or preceded by moves
whose duration can't be estimated, are left untouched.
*/
func GcodeSpinUpBridgeFan(gcodes []string, opts BridgeFanOptions) (output []string, report *BridgeFanReport, err error) {
	if err = opts.Validate(); err != nil {
		return nil, nil, err
	}
	pwm, err := opts.FanPWM()
	if err != nil {
		return nil, nil, err
	}
	fanCmd, err := opts.FanCommand()
	if err != nil {
		return nil, nil, err
	}

	prog := NewProgram(gcodes, opts.markers(), opts.DefaultFeedRate)
	report = &BridgeFanReport{}

	var (
		insertions []int
		floor      = -1 // earliest index a walk may reach, just after the previous insertion
	)
	for i := range prog.BridgeStarts() {
		res := prog.planBridge(i, int(pwm), opts.LeadTime, floor)
		if res.Action == BridgeInserted {
			insertions = append(insertions, res.InsertAt)
			floor = res.InsertAt
		}
		report.Bridges = append(report.Bridges, res)
	}

	output = make([]string, 0, len(gcodes)+len(insertions))
	next := 0
	for n, line := range gcodes {
		for next < len(insertions) && insertions[next] == n {
			output = append(output, fanCmd)
			next++
		}
		output = append(output, line)
	}

	return output, report, nil
}

// planBridge finds where the fan command for the bridge at i belongs.
// A fan command was already inserted before line floor, -1 if none.
func (p *Program) planBridge(i, pwm int, lead float64, floor int) BridgeResult {
	res := BridgeResult{Index: i, InsertAt: -1}
	if err := p.Invalid[i]; errors.Is(err, ErrRelativePositioning) {
		res.Action, res.Err = BridgeSkipped, err
		return res
	}
	if in := &p.Instructions[i]; in.Kind == KindFan && in.FanPWM >= pwm {
		res.Action = BridgeCovered
		return res
	}

	var (
		j   = -1
		sum float64
	)
	if lead <= 0 {
		j = i
	}

	for k := i - 1; j < 0; k-- {
		if floor >= 0 && k < floor {
			res.Action, res.Lead = BridgeCovered, sum
			return res
		}
		if k < 0 {
			j, res.Partial = 0, true
			break
		}

		in := &p.Instructions[k]
		if in.IsBridge() {
			j, res.Partial = k+1, true
			break
		}
		switch in.Kind {
		case KindFan:
			if in.FanPWM >= pwm {
				res.Action, res.Lead = BridgeCovered, sum
				return res
			}
			j, res.Partial = k+1, true
		case KindMotion:
			if err := p.Invalid[k]; err != nil {
				res.Action, res.Err = BridgeSkipped, err
				return res
			}
			sum += p.Duration[k]
			if sum >= lead {
				j = k
			}
		}
	}
	res.Lead = sum

	// the instructions right before j take no time, a fast enough fan there
	// already runs at the same moment
	for m := j - 1; m >= -1; m-- {
		if m+1 == floor {
			res.Action = BridgeCovered
			return res
		}
		if m < 0 {
			break
		}
		in := &p.Instructions[m]
		if in.Kind == KindFan {
			if in.FanPWM >= pwm {
				res.Action = BridgeCovered
				return res
			}
			break
		}
		if in.IsBridge() || p.Duration[m] > 0 || p.Invalid[m] != nil {
			break
		}
	}

	res.Action, res.InsertAt = BridgeInserted, j
	return res
}
