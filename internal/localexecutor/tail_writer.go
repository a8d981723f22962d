package localexecutor

// tailWriter keeps only the last max bytes written to it. Step output is
// diagnostic, and the end of a failing install or test log is the part an
// operator actually reads.
type tailWriter struct {
	max       int
	buf       []byte
	truncated bool
}

func newTailWriter(max int) *tailWriter {
	return &tailWriter{max: max}
}

// Write implements io.Writer. It never fails.
func (w *tailWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	if len(w.buf) > w.max {
		w.buf = w.buf[len(w.buf)-w.max:]
		w.truncated = true
	}
	return len(p), nil
}

// Bytes returns the retained tail as its own slice.
func (w *tailWriter) Bytes() []byte {
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out
}

// Truncated reports whether any output was dropped.
func (w *tailWriter) Truncated() bool {
	return w.truncated
}
