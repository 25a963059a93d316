package logbuf

import (
	"bytes"
	"strings"
	"sync"
)

// Tail is an io.Writer that keeps only the last N lines written to it.
// Rotation commands write stderr here so a failure can be reported without
// holding unbounded script output in memory.
type Tail struct {
	mu      sync.Mutex
	lines   []string
	size    int
	pos     int
	full    bool
	partial bytes.Buffer
}

// NewTail creates a Tail holding at most n lines.
func NewTail(n int) *Tail {
	if n < 1 {
		n = 1
	}
	return &Tail{
		lines: make([]string, n),
		size:  n,
	}
}

// Write implements io.Writer.
func (t *Tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.partial.Write(p)
	for {
		line, err := t.partial.ReadString('\n')
		if err != nil {
			t.partial.Reset()
			t.partial.WriteString(line)
			break
		}
		t.push(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

func (t *Tail) push(line string) {
	t.lines[t.pos] = line
	t.pos = (t.pos + 1) % t.size
	if t.pos == 0 {
		t.full = true
	}
}

// Lines returns the retained lines oldest first. A trailing line with no
// newline counts as the newest line.
func (t *Tail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	if t.full {
		out = append(out, t.lines[t.pos:]...)
	}
	out = append(out, t.lines[:t.pos]...)
	if t.partial.Len() > 0 {
		out = append(out, t.partial.String())
		if len(out) > t.size {
			out = out[1:]
		}
	}
	return out
}

// String joins the non-blank retained lines with "; ".
func (t *Tail) String() string {
	var kept []string
	for _, l := range t.Lines() {
		if s := strings.TrimSpace(l); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "; ")
}
