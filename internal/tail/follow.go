// Package tail streams growing log files, like tail -f over several files.
package tail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"
)

const pollInterval = 100 * time.Millisecond

// FileSource represents a file to follow with an optional prefix for each line
type FileSource struct {
	Path   string
	Prefix string
}

// Follower streams several files to one writer. Lines are written whole so
// output from different files never interleaves mid-line.
type Follower struct {
	w       io.Writer
	fromEnd bool
	poll    time.Duration

	mu      sync.Mutex
	sources map[string]bool // tracks which paths are already being followed
	errCh   chan error
	wg      sync.WaitGroup
	done    chan struct{}
	stopped bool
}

// NewFollower creates a Follower writing to w. With fromEnd set, existing
// content is skipped and only lines appended afterwards are streamed.
func NewFollower(w io.Writer, fromEnd bool) *Follower {
	return &Follower{
		w:       w,
		fromEnd: fromEnd,
		poll:    pollInterval,
		sources: make(map[string]bool),
		errCh:   make(chan error, 16),
		done:    make(chan struct{}),
	}
}

// AddSource adds a new file source to follow. If the source is already being
// followed, this is a no-op. A file that does not exist yet is waited for.
func (f *Follower) AddSource(source FileSource) {
	f.mu.Lock()
	if f.sources[source.Path] || f.stopped {
		f.mu.Unlock()
		return
	}
	f.sources[source.Path] = true
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		if err := f.follow(source); err != nil {
			f.errCh <- err
		}
	}()
}

// Stop signals all sources to stop and waits for them to finish
func (f *Follower) Stop() {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	f.stopped = true
	f.mu.Unlock()
	close(f.done)
	f.wg.Wait()
}

// Wait blocks until a source fails, ctx is done or the follower is stopped
func (f *Follower) Wait(ctx context.Context) error {
	select {
	case err := <-f.errCh:
		f.Stop()
		return err
	case <-ctx.Done():
		f.Stop()
		return nil
	case <-f.done:
		return nil
	}
}

// Follow streams sources to w until ctx is cancelled or a read fails
func Follow(ctx context.Context, sources []FileSource, w io.Writer, fromEnd bool) error {
	f := NewFollower(w, fromEnd)
	for _, src := range sources {
		f.AddSource(src)
	}
	return f.Wait(ctx)
}

// Dump writes the current content of each existing source and returns
func Dump(sources []FileSource, w io.Writer) error {
	for _, src := range sources {
		data, err := os.ReadFile(src.Path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		for len(data) > 0 {
			line := data
			if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
				line = data[:idx+1]
			}
			if _, err := io.WriteString(w, src.Prefix); err != nil {
				return err
			}
			if _, err := w.Write(line); err != nil {
				return err
			}
			data = data[len(line):]
		}
	}
	return nil
}

func (f *Follower) stopping() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *Follower) wait() bool {
	select {
	case <-f.done:
		return false
	case <-time.After(f.poll):
		return true
	}
}

// open waits for path to exist
func (f *Follower) open(path string) (*os.File, error) {
	for {
		file, err := os.Open(path)
		if err == nil {
			return file, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if !f.wait() {
			return nil, nil
		}
	}
}

// follow reads a file until stopped and prefixes each complete line
func (f *Follower) follow(source FileSource) error {
	file, err := f.open(source.Path)
	if file == nil || err != nil {
		return err
	}
	defer file.Close()

	offset := int64(0)
	if f.fromEnd {
		if offset, err = file.Seek(0, io.SeekEnd); err != nil {
			return err
		}
	}

	buf := make([]byte, 4096)
	var lineBuf bytes.Buffer

	for !f.stopping() {
		// A truncated file (log rotated in place) restarts from the top
		if info, err := file.Stat(); err == nil && info.Size() < offset {
			offset = 0
			lineBuf.Reset()
		}

		n, err := file.ReadAt(buf, offset)
		if n > 0 {
			offset += int64(n)

			data := buf[:n]
			for len(data) > 0 {
				idx := bytes.IndexByte(data, '\n')
				if idx < 0 {
					// No newline - buffer the data for the next read
					lineBuf.Write(data)
					break
				}
				lineBuf.Write(data[:idx+1])
				f.mu.Lock()
				if source.Prefix != "" {
					io.WriteString(f.w, source.Prefix)
				}
				f.w.Write(lineBuf.Bytes())
				f.mu.Unlock()
				lineBuf.Reset()
				data = data[idx+1:]
			}
		}

		if err != nil && err != io.EOF {
			return err
		}
		if n < len(buf) && !f.wait() {
			return nil
		}
	}
	return nil
}
