package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errInterrupted = errors.New("interrupted")

// Candidate is a single completion suggestion.
type Candidate struct {
	Text string
	Type string // "command", "key" or "index"
	Help string
}

// Completer returns the candidates for the text before the cursor.
type Completer func(line string) []Candidate

type keyResult struct {
	key string
	err error
}

// LineEditor is a raw-mode line editor with a completion popup and history.
type LineEditor struct {
	in       *os.File
	out      io.Writer
	complete Completer
	oldState *term.State
	fd       int

	line   []rune
	cursor int

	completions    []Candidate
	selected       int
	showPopup      bool
	popupLineCount int

	history []string
	histPos int

	pendingInput []byte
	keyChan      chan keyResult
	reading      bool
}

// NewLineEditor creates an editor reading keys from in.
func NewLineEditor(in *os.File, out io.Writer, complete Completer) *LineEditor {
	return &LineEditor{
		in:       in,
		out:      out,
		complete: complete,
		fd:       int(in.Fd()),
	}
}

func (e *LineEditor) enterRawMode() error {
	oldState, err := term.MakeRaw(e.fd)
	if err != nil {
		return err
	}
	e.oldState = oldState
	return nil
}

func (e *LineEditor) exitRawMode() {
	if e.oldState != nil {
		term.Restore(e.fd, e.oldState)
		e.oldState = nil
	}
}

func (e *LineEditor) terminalWidth() int {
	width, _, err := term.GetSize(e.fd)
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func (e *LineEditor) readByte() (byte, error) {
	if len(e.pendingInput) > 0 {
		b := e.pendingInput[0]
		e.pendingInput = e.pendingInput[1:]
		return b, nil
	}
	buf := make([]byte, 32)
	n, err := e.in.Read(buf)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	if n > 1 {
		e.pendingInput = append(e.pendingInput, buf[1:n]...)
	}
	return buf[0], nil
}

// skipToTerminator consumes the rest of a CSI sequence.
func (e *LineEditor) skipToTerminator() {
	for {
		b, err := e.readByte()
		if err != nil || (b >= 0x40 && b <= 0x7e) {
			return
		}
	}
}

// readKey reads one key press and names it.
func (e *LineEditor) readKey() (string, error) {
	ch, err := e.readByte()
	if err != nil {
		return "", err
	}

	if ch == 0x1b {
		ch2, err := e.readByte()
		if err != nil || ch2 != '[' {
			return "escape", nil
		}
		ch3, err := e.readByte()
		if err != nil {
			return "escape", nil
		}
		switch ch3 {
		case 'A':
			return "up", nil
		case 'B':
			return "down", nil
		case 'C':
			return "right", nil
		case 'D':
			return "left", nil
		case 'H':
			return "home", nil
		case 'F':
			return "end", nil
		case 'Z':
			return "shift-tab", nil
		case '3':
			e.readByte() // ~
			return "delete", nil
		}
		if ch3 < 0x40 || ch3 > 0x7e {
			e.skipToTerminator()
		}
		return e.readKey()
	}

	switch ch {
	case 0x01:
		return "home", nil
	case 0x03:
		return "ctrl-c", nil
	case 0x04:
		return "ctrl-d", nil
	case 0x05:
		return "end", nil
	case 0x09:
		return "tab", nil
	case 0x0d, 0x0a:
		return "enter", nil
	case 0x7f, 0x08:
		return "backspace", nil
	case 0x15:
		return "ctrl-u", nil
	case 0x17:
		return "ctrl-w", nil
	}
	return string(ch), nil
}

func (e *LineEditor) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
}

// render redraws the prompt, the line and the popup, then places the
// cursor.
func (e *LineEditor) render(prompt string) {
	e.clearPopup()
	e.printf("\r\033[K%s%s", prompt, string(e.line))
	if e.showPopup && len(e.completions) > 0 {
		e.renderPopup()
	}
	e.printf("\r\033[%dC", len(prompt)+e.cursor)
}

func typeIndicator(t string) string {
	if t == "" {
		return "?"
	}
	return strings.ToUpper(t[:1])
}

func (e *LineEditor) renderPopup() {
	shown := min(len(e.completions), 10)
	maxLen := max(e.terminalWidth()-2, 40)

	nameWidth := 8
	for _, c := range e.completions[:shown] {
		nameWidth = max(nameWidth, len(c.Text)+2)
	}
	nameWidth = min(nameWidth, 30)

	for i, c := range e.completions[:shown] {
		e.printf("\n\r\033[K")
		prefix := "  "
		if i == e.selected {
			prefix = "> "
		}
		text := c.Text
		if len(text) > nameWidth-2 {
			text = text[:nameWidth-5] + "..."
		}
		line := fmt.Sprintf("%s%-*s [%s]", prefix, nameWidth, text, typeIndicator(c.Type))
		if c.Help != "" {
			if remaining := maxLen - len(line) - 1; remaining > 10 {
				help := c.Help
				if len(help) > remaining {
					help = help[:remaining-3] + "..."
				}
				line += " " + help
			}
		}
		if len(line) > maxLen {
			line = line[:maxLen]
		}
		if i == e.selected {
			e.printf("\033[7m%s\033[0m", line)
		} else {
			e.printf("\033[2m%s\033[0m", line)
		}
	}
	e.popupLineCount = shown
	e.printf("\033[%dA\r", shown)
}

func (e *LineEditor) clearPopup() {
	if e.popupLineCount == 0 {
		return
	}
	for i := 0; i < e.popupLineCount; i++ {
		e.printf("\n\033[2K")
	}
	e.printf("\033[%dA\r", e.popupLineCount)
	e.popupLineCount = 0
}

func (e *LineEditor) hidePopup() {
	e.showPopup = false
	e.completions = nil
}

func (e *LineEditor) fetchCompletions() {
	e.completions = nil
	if e.complete != nil {
		e.completions = e.complete(string(e.line[:e.cursor]))
	}
}

// applyCompletion replaces the word before the cursor with the selected
// candidate.
func (e *LineEditor) applyCompletion() {
	if e.selected < 0 || e.selected >= len(e.completions) {
		return
	}
	c := e.completions[e.selected]
	start := e.cursor
	for start > 0 && e.line[start-1] != ' ' {
		start--
	}
	text := []rune(c.Text)
	if c.Type == "command" {
		text = append(text, ' ')
	}
	line := make([]rune, 0, len(e.line)+len(text))
	line = append(line, e.line[:start]...)
	line = append(line, text...)
	line = append(line, e.line[e.cursor:]...)
	e.line = line
	e.cursor = start + len(text)
	e.hidePopup()
}

func (e *LineEditor) startKeyReader() {
	if e.reading {
		return
	}
	e.keyChan = make(chan keyResult, 16)
	e.reading = true
	go func() {
		for {
			key, err := e.readKey()
			e.keyChan <- keyResult{key, err}
			if err != nil {
				e.reading = false
				return
			}
		}
	}()
}

// recall moves through history by delta and loads the entry.
func (e *LineEditor) recall(delta int) {
	pos := e.histPos + delta
	if pos < 0 || pos > len(e.history) {
		return
	}
	e.histPos = pos
	if pos == len(e.history) {
		e.line = nil
	} else {
		e.line = []rune(e.history[pos])
	}
	e.cursor = len(e.line)
}

// ReadLine reads one line. It returns io.EOF on Ctrl-D at an empty line
// and errInterrupted on Ctrl-C.
func (e *LineEditor) ReadLine(prompt string) (string, error) {
	if err := e.enterRawMode(); err != nil {
		return "", err
	}
	defer e.exitRawMode()

	resize, stop := setupResizeSignal()
	defer stop()

	e.startKeyReader()
	e.line = nil
	e.cursor = 0
	e.hidePopup()
	e.selected = 0
	e.histPos = len(e.history)
	e.render(prompt)

	for {
		var kr keyResult
		select {
		case <-resize:
			e.render(prompt)
			continue
		case kr = <-e.keyChan:
		}
		if kr.err != nil {
			return "", kr.err
		}

		popup := e.showPopup && len(e.completions) > 0
		switch kr.key {
		case "enter":
			if popup {
				e.applyCompletion()
				break
			}
			e.clearPopup()
			e.printf("\r\n")
			line := string(e.line)
			if strings.TrimSpace(line) != "" {
				e.history = append(e.history, line)
			}
			return line, nil

		case "ctrl-c":
			e.clearPopup()
			e.printf("\r\n")
			return "", errInterrupted

		case "ctrl-d":
			if len(e.line) == 0 {
				e.clearPopup()
				e.printf("\r\n")
				return "", io.EOF
			}
			if e.cursor < len(e.line) {
				e.line = append(e.line[:e.cursor], e.line[e.cursor+1:]...)
			}
			e.hidePopup()

		case "tab", "shift-tab":
			switch {
			case popup && kr.key == "tab":
				e.selected = (e.selected + 1) % len(e.completions)
			case popup:
				e.selected = (e.selected + len(e.completions) - 1) % len(e.completions)
			default:
				e.fetchCompletions()
				switch len(e.completions) {
				case 0:
				case 1:
					e.selected = 0
					e.applyCompletion()
				default:
					e.selected = 0
					if kr.key == "shift-tab" {
						e.selected = len(e.completions) - 1
					}
					e.showPopup = true
				}
			}

		case "up":
			if popup {
				e.selected = (e.selected + len(e.completions) - 1) % len(e.completions)
			} else {
				e.recall(-1)
			}

		case "down":
			if popup {
				e.selected = (e.selected + 1) % len(e.completions)
			} else {
				e.recall(1)
			}

		case "left":
			if e.cursor > 0 {
				e.cursor--
			}
			e.hidePopup()

		case "right":
			if e.cursor < len(e.line) {
				e.cursor++
			}
			e.hidePopup()

		case "home":
			e.cursor = 0
			e.hidePopup()

		case "end":
			e.cursor = len(e.line)
			e.hidePopup()

		case "backspace":
			if e.cursor > 0 {
				e.line = append(e.line[:e.cursor-1], e.line[e.cursor:]...)
				e.cursor--
			}
			e.hidePopup()

		case "delete":
			if e.cursor < len(e.line) {
				e.line = append(e.line[:e.cursor], e.line[e.cursor+1:]...)
			}
			e.hidePopup()

		case "ctrl-u":
			e.line = e.line[e.cursor:]
			e.cursor = 0
			e.hidePopup()

		case "ctrl-w":
			start := e.cursor
			for start > 0 && e.line[start-1] == ' ' {
				start--
			}
			for start > 0 && e.line[start-1] != ' ' {
				start--
			}
			e.line = append(e.line[:start], e.line[e.cursor:]...)
			e.cursor = start
			e.hidePopup()

		case "escape":
			e.hidePopup()

		default:
			if len(kr.key) == 1 && kr.key[0] >= 32 && kr.key[0] < 127 {
				line := make([]rune, 0, len(e.line)+1)
				line = append(line, e.line[:e.cursor]...)
				line = append(line, rune(kr.key[0]))
				line = append(line, e.line[e.cursor:]...)
				e.line = line
				e.cursor++
				e.hidePopup()
			}
		}

		e.render(prompt)
	}
}
