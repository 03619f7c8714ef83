package logging

import (
	"io"
	"log"
	"os"
	"strings"
)

// New returns a logger writing to stdout with a bracketed component prefix.
func New(component string) *log.Logger {
	return NewWithWriter(os.Stdout, component)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, component string) *log.Logger {
	prefix := ""
	if component = strings.TrimSpace(component); component != "" {
		prefix = "[" + component + "] "
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmsgprefix)
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// MaskToken keeps the first six and last four characters of a credential.
func MaskToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return "(none)"
	}
	if len(token) <= 10 {
		return strings.Repeat("*", len(token))
	}
	return token[:6] + "..." + token[len(token)-4:]
}
