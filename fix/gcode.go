package fix

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptyString   = errors.New("empty string")
	ErrParamNotFound = errors.New("param not found")
)

const (
	// GCODE_SEPARATOR is a separator used to separate the sections of the block when is exported as line string
	GCODE_SEPARATOR = " "
)

// Gcode is a single word of a block, e.g. G1, X10.5 or F1800.
type Gcode struct {
	word byte
	addr string
}

func (g *Gcode) Word() byte {
	return g.word
}

// AddrAs parses the address into target, *int32 or *float64.
func (g *Gcode) AddrAs(target any) error {
	switch typ := target.(type) {
	case *int32:
		i64, err := ParseInt([]byte(g.addr))
		if err == nil {
			*typ = int32(i64)
		}
		return err
	case *float64:
		f64, err := strconv.ParseFloat(g.addr, 64)
		if err == nil {
			*typ = f64
		}
		return err
	default:
		return fmt.Errorf("unsupported addr type as %T", typ)
	}
}

func (g *Gcode) SetAddr(value any) error {
	switch typ := value.(type) {
	case string:
		g.addr = strings.TrimSpace(typ)
	case int, int32, int64, uint, uint8, uint32, uint64:
		g.addr = fmt.Sprintf("%d", typ)
	case nil:
		g.addr = ""
	default:
		return fmt.Errorf("unsupported addr type %T", typ)
	}
	return nil
}

// Is reports whether g equals the word+number in s, e.g. "G1" or "M106".
// Numbers compare by value, G01 is G1.
func (g *Gcode) Is(s string) bool {
	return len(s) > 0 && g.word == s[0] && trimZeros(g.addr) == trimZeros(s[1:])
}

// trimZeros drops the leading zeros of a command number, keeping one digit.
func trimZeros(addr string) string {
	i := 0
	for i < len(addr)-1 && addr[i] == '0' && addr[i+1] >= '0' && addr[i+1] <= '9' {
		i++
	}
	return addr[i:]
}

func (g *Gcode) String() string {
	if g.word == 0 {
		return ""
	}
	return string(append([]byte{g.word}, g.addr[:]...))
}

func NewGcode(word byte, addr string) (*Gcode, error) {
	if err := isValidWord(word); err != nil {
		return nil, err
	}
	return &Gcode{word: word, addr: addr}, nil
}

func ParseGcode(s string) (*Gcode, error) {
	if s == "" {
		return nil, ErrEmptyString
	}
	return NewGcode(s[0], s[1:])
}

// GcodeBlock
type GcodeBlock struct {
	cmd     *Gcode
	params  []*Gcode
	comment string
}

// NewGcodeBlock builds a block from a command word such as "M106".
func NewGcodeBlock(cmd string) (*GcodeBlock, error) {
	g, err := ParseGcode(cmd)
	if err != nil {
		return nil, err
	}
	return &GcodeBlock{cmd: g}, nil
}

func (b *GcodeBlock) Cmd() *Gcode {
	if b.cmd == nil {
		return &Gcode{}
	}
	return b.cmd
}

func (b *GcodeBlock) Params() []*Gcode {
	if b.params == nil {
		return []*Gcode{}
	}
	return b.params
}

func (b *GcodeBlock) Comment() string {
	return b.comment
}

func (b *GcodeBlock) SetComment(comment string, args ...any) {
	if len(args) > 0 {
		b.comment = fmt.Sprintf(comment, args...)
	} else {
		b.comment = comment
	}
}

func (b *GcodeBlock) String() string {
	return strings.TrimSpace(b.Format("%c %p %m"))
}

func (b *GcodeBlock) IsComment() bool {
	return b.cmd == nil && len(b.params) == 0 && b.comment != ""
}

func (b *GcodeBlock) Is(s string) bool {
	return b.Cmd().Is(s)
}

// IsAny reports whether the command matches one of cmds.
func (b *GcodeBlock) IsAny(cmds ...string) bool {
	for _, s := range cmds {
		if b.Is(s) {
			return true
		}
	}
	return false
}

func (b *GcodeBlock) HasParam(p byte) bool {
	for _, g := range b.Params() {
		if g.Word() == p {
			return true
		}
	}
	return false
}

func (b *GcodeBlock) SetParam(p byte, v any) error {
	for _, g := range b.Params() {
		if g.Word() == p {
			return g.SetAddr(v)
		}
	}
	new, err := NewGcode(p, "")
	if err != nil {
		return err
	}
	if err = new.SetAddr(v); err == nil {
		b.params = append(b.params, new)
	}
	return err
}

func (b *GcodeBlock) GetParam(p byte, target any) error {
	for _, g := range b.Params() {
		if g.Word() == p {
			return g.AddrAs(target)
		}
	}
	return fmt.Errorf("%w: %s", ErrParamNotFound, string(p))
}

// LookupFloat returns the value of param p, ok is false when p is absent or malformed.
func (b *GcodeBlock) LookupFloat(p byte) (v float64, ok bool) {
	if err := b.GetParam(p, &v); err != nil {
		return 0, false
	}
	return v, true
}

// GetFanNum returns the fan index addressed by M106/M107, 0 when P is omitted.
// Slicers that drive several fans sometimes mention the index only in the comment.
func (b *GcodeBlock) GetFanNum() (p int32, err error) {
	if !b.IsAny("M106", "M107") {
		return -1, fmt.Errorf("command %s not supported", b.Cmd())
	}
	if !b.HasParam('P') {
		p = 0
		if len(b.Comment()) > 2 {
			if ele := strings.TrimSpace(take(b.Comment(), `\bP\d+\b`).taken); ele != "" {
				var i64 int64
				if i64, err = strconv.ParseInt(ele[1:], 10, 32); err == nil {
					p = int32(i64)
				}
			}
		}
		return p, err
	}
	err = b.GetParam('P', &p)
	return p, err
}

/*
Format formats the command with the given format string.

%c : command
%p : series of params
%m : comments
*/
func (b *GcodeBlock) Format(format string) string {
	result := strings.Builder{}
	result.Grow(128)

	for i := 0; i < len(format); i++ {
		if format[i] == '%' {
			if i+1 < len(format) {
				switch format[i+1] {
				case 'c':
					if b.cmd != nil {
						result.WriteString(b.Cmd().String())
					}
					i++
				case 'p':
					if total := len(b.Params()); total > 0 {
						for i, g := range b.Params() {
							result.WriteString(g.String())
							if i < total-1 {
								result.WriteString(GCODE_SEPARATOR)
							}
						}
					}
					i++
				case 'm':
					result.WriteString(b.Comment())
					i++
				}
			}
		} else {
			result.WriteByte(format[i])
		}
	}

	return result.String()
}

func ParseGcodeBlock(source string) (*GcodeBlock, error) {
	if len(source) > 0 && (source[0] == ' ' || source[0] == '\t') {
		source = strings.TrimSpace(source)
	}

	if source == "" {
		return nil, ErrEmptyString
	}

	block := &GcodeBlock{}

	// keep comments
	if i := strings.Index(source, ";"); i != -1 {
		comments := source[i:]
		source = source[:i]
		block.comment = strings.TrimSpace(comments)
	}

	parse := prepareGcodeLineToParse(source)

	if parse == "" {
		return block, nil // only comments
	}

	params := make([]*Gcode, 0, 8)

	total := len(parse)
	for i := 0; i < total; {
		start := i
		for i < total && parse[i] != ' ' {
			i++
		}
		g := parse[start:i]

		for i < total && parse[i] == ' ' {
			i++
		}

		if g == "" {
			continue
		}
		if err := isValidWord(g[0]); err == nil {
			gcode, err := ParseGcode(g)
			if err != nil {
				return nil, err
			}

			params = append(params, gcode)
		}
	}

	if len(params) > 0 {
		block.cmd = params[0]
		block.params = params[1:]
	}

	return block, nil
}

// } GcodeBlock

// isValidWord allow knowledge if a potential word value contains a value valid according to a specification gcode.
func isValidWord(word byte) error {
	if word >= 'A' && word <= 'Z' {
		return nil
	}
	return fmt.Errorf("gcode's word has invalid value: %v", word)
}
