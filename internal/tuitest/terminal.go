package tuitest

import (
	"bytes"
	"io"
)

// terminalQuery pairs a control sequence a program may emit with the reply a
// real terminal would send back.
type terminalQuery struct {
	request []byte
	reply   []byte
}

// Replies pretend to be a dark xterm with the cursor at the origin. Both the
// BEL and ST terminated forms of the OSC colour queries are answered.
var terminalQueries = []terminalQuery{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b[c"), []byte("\x1b[?62;22c")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

const (
	responderBufferLimit = 256
	responderTail        = 64
)

// terminalResponder watches program output and answers terminal queries so
// programs that probe the terminal do not stall under a bare pty.
type terminalResponder struct {
	w   io.Writer
	buf []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w, buf: make([]byte, 0, responderBufferLimit)}
}

func (tr *terminalResponder) Process(chunk []byte) {
	tr.buf = append(tr.buf, chunk...)
	for tr.answerNext() {
	}
	// Sequences may span reads.
	if len(tr.buf) > responderBufferLimit {
		tr.buf = append(tr.buf[:0], tr.buf[len(tr.buf)-responderTail:]...)
	}
}

// answerNext replies to the earliest pending query in the buffer and drops
// everything up to its end.
func (tr *terminalResponder) answerNext() bool {
	first, match := -1, terminalQuery{}
	for _, q := range terminalQueries {
		idx := bytes.Index(tr.buf, q.request)
		if idx >= 0 && (first < 0 || idx < first) {
			first, match = idx, q
		}
	}
	if first < 0 {
		return false
	}
	tr.buf = tr.buf[first+len(match.request):]
	_, _ = tr.w.Write(match.reply)
	return true
}
