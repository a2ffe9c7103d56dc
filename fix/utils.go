package fix

import (
	"errors"
	"regexp"
	"strings"
	"sync"
)

var (
	ErrValueSyntax  = errors.New("invalid syntax")
	ErrIntegerRange = errors.New("value out of range")
)

func split(s string) []string {
	delimiter := ","
	if strings.Contains(s, ";") {
		delimiter = ";"
	}
	x := strings.Split(s, delimiter)
	if len(x) == 1 {
		x = append(x, "")
	}
	for i, str := range x {
		x[i] = strings.TrimSpace(str)
	}
	return x
}

func ParseInt(b []byte) (int64, error) {
	if v, ok, overflow := _parseInt(b); !ok {
		if overflow {
			return 0, ErrIntegerRange
		}
		return 0, ErrValueSyntax
	} else {
		return v, nil
	}
}

func getSetting(s string, key ...string) (v string, ok bool) {
	strlen := len(s)
	if strlen > 5 && s[0] == ';' {
		for _, p := range key {
			if strlen < len(p)+4 {
				continue
			}
			prefix := "; " + p + " ="
			if strings.HasPrefix(s, prefix) {
				if v := strings.TrimSpace(s[len(prefix):]); v != "" {
					return v, true
				}
			}
		}
	}
	return "", false
}

// removeDuplicateSpaces removes all consecutive spaces in a string
func removeDuplicateSpaces(s string) string {
	var (
		sb        strings.Builder
		prevSpace = false
	)

	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			if !prevSpace {
				sb.WriteByte(s[i])
				prevSpace = true
			}
		} else {
			sb.WriteByte(s[i])
			prevSpace = false
		}
	}

	return sb.String()
}

// removeSpecialChars drops \n and \r, a \t becomes a plain space
func removeSpecialChars(s string) string {
	var result strings.Builder
	for _, c := range s {
		switch c {
		case '\n', '\r':
		case '\t':
			result.WriteByte(' ')
		default:
			result.WriteRune(c)
		}
	}
	return result.String()
}

// prepareGcodeLineToParse modify a string to can be parsed for the Parse function.
// Words are upper-cased, firmware accepts "g1 x10" as well.
// It doesn't verify if s strings is a gcode line valid
func prepareGcodeLineToParse(s string) string {
	s = strings.TrimSpace(s)
	s = removeSpecialChars(s)
	s = removeDuplicateSpaces(s)

	return strings.ToUpper(s)
}

type elementTaken struct {
	taken     string
	remainder string
}

var takeRegexp sync.Map

func take(source string, regex string) elementTaken {
	var (
		re *regexp.Regexp
	)
	if load, ok := takeRegexp.Load(regex); ok {
		re = load.(*regexp.Regexp)
	} else {
		re = regexp.MustCompile(regex)
		takeRegexp.Store(regex, re)
	}
	match := re.FindStringIndex(source)
	if match == nil {
		return elementTaken{remainder: source}
	}

	return elementTaken{taken: source[match[0]:match[1]], remainder: source[:match[0]] + source[match[1]:]}
}

// About 2x faster then strconv.ParseInt because it only supports base 10
func _parseInt(bytes []byte) (v int64, ok bool, overflow bool) {
	if len(bytes) == 0 {
		return 0, false, false
	}

	var neg bool = false
	if bytes[0] == '-' {
		neg = true
		bytes = bytes[1:]
	}

	var n uint64 = 0
	for _, c := range bytes {
		if c < '0' || c > '9' {
			return 0, false, false
		}
		if n > maxUint64/10 {
			return 0, false, true
		}
		n *= 10
		n1 := n + uint64(c-'0')
		if n1 < n {
			return 0, false, true
		}
		n = n1
	}

	if n > maxInt64 {
		if neg && n == absMinInt64 {
			return -absMinInt64, true, false
		}
		return 0, false, true
	}

	if neg {
		return -int64(n), true, false
	} else {
		return int64(n), true, false
	}
}
