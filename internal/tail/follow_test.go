package tail

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the follower goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, b *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(b.String(), want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("output = %q, want it to contain %q", b.String(), want)
}

func appendFile(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(data); err != nil {
		t.Fatal(err)
	}
}

func TestFollower_PrefixesLines(t *testing.T) {
	dir := t.TempDir()
	client := filepath.Join(dir, "fleetdash.log")
	demo := filepath.Join(dir, "demo.log")
	appendFile(t, client, "level=INFO msg=start\n")

	var out syncBuffer
	f := NewFollower(&out, false)
	f.AddSource(FileSource{Path: client, Prefix: "[tui] "})
	f.AddSource(FileSource{Path: demo, Prefix: "[demo] "})
	f.AddSource(FileSource{Path: demo, Prefix: "[dup] "})
	defer f.Stop()

	waitFor(t, &out, "[tui] level=INFO msg=start\n")

	// demo.log appears later; a partial line is held back until complete
	appendFile(t, demo, "listening")
	time.Sleep(150 * time.Millisecond)
	if strings.Contains(out.String(), "listening") {
		t.Errorf("partial line written early: %q", out.String())
	}
	appendFile(t, demo, " addr=:8080\n")
	waitFor(t, &out, "[demo] listening addr=:8080\n")

	if strings.Contains(out.String(), "[dup]") {
		t.Error("same path followed twice")
	}
}

func TestFollower_FromEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleetdash.log")
	appendFile(t, path, "old line\n")

	var out syncBuffer
	f := NewFollower(&out, true)
	f.AddSource(FileSource{Path: path})
	defer f.Stop()

	time.Sleep(150 * time.Millisecond)
	appendFile(t, path, "new line\n")
	waitFor(t, &out, "new line\n")
	if strings.Contains(out.String(), "old line") {
		t.Errorf("output = %q, want existing content skipped", out.String())
	}
}

func TestFollow_StopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleetdash.log")
	appendFile(t, path, "x\n")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var out syncBuffer
	if err := Follow(ctx, []FileSource{{Path: path}}, &out, false); err != nil {
		t.Errorf("Follow() error = %v", err)
	}
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.log")
	appendFile(t, a, "one\ntwo")

	var out bytes.Buffer
	err := Dump([]FileSource{{Path: a, Prefix: "> "}, {Path: filepath.Join(dir, "missing.log")}}, &out)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if got, want := out.String(), "> one\n> two"; got != want {
		t.Errorf("Dump() = %q, want %q", got, want)
	}
}
