package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuf) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestParseMode(t *testing.T) {
	cases := map[string]LogMode{"": ModeDev, "DEV": ModeDev, "prod": ModeProd, " silence ": ModeSilence}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("loud"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
	var m LogMode
	if err := m.UnmarshalText([]byte("prod")); err != nil || m != ModeProd {
		t.Fatalf("UnmarshalText: %v %v", m, err)
	}
}

func TestAsyncDrainsOnClose(t *testing.T) {
	buf := &lockedBuf{}
	log, ah := NewAsyncTo(buf, 64, ModeProd)
	for i := range 10 {
		log.Info("spin", "n", i)
	}
	ah.Close()
	ah.Close()
	out := buf.String()
	if n := strings.Count(out, `"msg":"spin"`); n != 10 {
		t.Fatalf("expected 10 lines, got %d:\n%s", n, out)
	}
	log.Info("after close")
	if ah.Dropped() != 1 {
		t.Fatalf("dropped = %d", ah.Dropped())
	}
}

func TestSilenceWritesNothing(t *testing.T) {
	buf := &lockedBuf{}
	log, ah := NewAsyncTo(buf, 8, ModeSilence)
	log.Error("boom")
	ah.Close()
	if buf.String() != "" {
		t.Fatalf("silence mode wrote %q", buf.String())
	}
}
