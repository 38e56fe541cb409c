package executor

import (
	"bytes"

	ilogger "explab/internal/logger"
)

const episodeLogLineLimit = 512

// lineWriter splits subprocess output into lines and forwards each one,
// capped to maxLen bytes, to the launch debug log with a per-unit prefix.
type lineWriter struct {
	prefix  string
	maxLen  int
	buf     bytes.Buffer
	dropped bool
}

func newLineWriter(prefix string, maxLen int) *lineWriter {
	if maxLen <= 0 {
		maxLen = episodeLogLineLimit
	}
	return &lineWriter{prefix: prefix, maxLen: maxLen}
}

func (lw *lineWriter) Write(p []byte) (int, error) {
	if lw == nil {
		return len(p), nil
	}
	total := len(p)
	for len(p) > 0 {
		if idx := bytes.IndexByte(p, '\n'); idx >= 0 {
			lw.writeLimited(p[:idx])
			lw.emit(true)
			p = p[idx+1:]
			continue
		}
		lw.writeLimited(p)
		break
	}
	return total, nil
}

func (lw *lineWriter) Flush() {
	if lw == nil || lw.buf.Len() == 0 {
		return
	}
	lw.emit(false)
}

func (lw *lineWriter) emit(force bool) {
	line := lw.buf.String()
	dropped := lw.dropped
	lw.dropped = false
	lw.buf.Reset()
	if line == "" && !force {
		return
	}
	if dropped && lw.maxLen > 3 {
		line = line[:min(len(line), lw.maxLen-3)] + "..."
	}
	ilogger.LogDebug(lw.prefix + line)
}

func (lw *lineWriter) writeLimited(p []byte) {
	if len(p) == 0 {
		return
	}
	remaining := lw.maxLen - lw.buf.Len()
	if remaining <= 0 {
		lw.dropped = true
		return
	}
	if len(p) <= remaining {
		lw.buf.Write(p)
		return
	}
	lw.buf.Write(p[:remaining])
	lw.dropped = true
}

// tailBuffer keeps the last limit bytes written to it, used to surface the
// end of episode output in error messages.
type tailBuffer struct {
	limit int
	data  []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	if b.limit <= 0 {
		return len(p), nil
	}

	if len(p) >= b.limit {
		b.data = append(b.data[:0], p[len(p)-b.limit:]...)
		return len(p), nil
	}

	total := len(b.data) + len(p)
	if total <= b.limit {
		b.data = append(b.data, p...)
		return len(p), nil
	}

	overflow := total - b.limit
	b.data = append(b.data[overflow:], p...)
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.data)
}
