package main

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// gcodeText is a G-code file split into lines, remembering how to join them back.
type gcodeText struct {
	lines    []string
	eol      string
	trailing bool // input ended with eol
}

func readGcode(in io.Reader) (*gcodeText, error) {
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(in); err != nil {
		return nil, err
	}

	text := buf.String()
	g := &gcodeText{eol: eolLF}
	if strings.Contains(text, eolCRLF) {
		// mixed endings are written back as CRLF
		g.eol = eolCRLF
		text = strings.ReplaceAll(text, eolCRLF, eolLF)
	}
	if text == "" {
		return g, nil
	}
	if strings.HasSuffix(text, eolLF) {
		g.trailing = true
		text = text[:len(text)-len(eolLF)]
	}
	g.lines = strings.Split(text, eolLF)
	return g, nil
}

func writeGcode(out io.Writer, g *gcodeText) error {
	var sb strings.Builder
	for i, line := range g.lines {
		sb.WriteString(line)
		if i < len(g.lines)-1 || g.trailing {
			sb.WriteString(g.eol)
		}
	}
	_, err := io.WriteString(out, sb.String())
	return err
}

func stdinIsPipe() bool {
	st, err := os.Stdin.Stat()
	return err == nil && (st.Mode()&os.ModeCharDevice) == 0
}
