// Package clipboard copies secrets to the system clipboard the way pass -c
// does: only the first plaintext line leaves the process, and the clipboard
// is put back to its previous content after a timeout unless something else
// was copied in the meantime.
package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	atotto "github.com/atotto/clipboard"
	"github.com/rs/zerolog"

	passstore "github.com/MKhiriev/go-pass-store"
	"github.com/MKhiriev/go-pass-store/audit"
	"github.com/MKhiriev/go-pass-store/internal/config"
	"github.com/MKhiriev/go-pass-store/internal/logger"
)

// ErrNothingToCopy is returned when the secret's first line is empty, so
// there is no password to put on the clipboard.
var ErrNothingToCopy = errors.New("nothing to copy: first line is empty")

// Source is the slice of the password store the copier reads through.
// *passstore.Store satisfies it.
type Source interface {
	OpenRead(ctx context.Context, path string) (*passstore.ReadHandle, error)
}

// Copier copies secrets to the system clipboard and arranges for the
// clipboard to be restored afterwards. At most one restore is pending at a
// time; a newer Copy settles the previous one first. Copy and Stop may be
// called from different goroutines.
type Copier struct {
	readAll    func() (string, error)
	writeAll   func(string) error
	after      func(time.Duration) <-chan time.Time
	clearAfter time.Duration
	rec        audit.Recorder
	log        *logger.Logger

	mu      sync.Mutex
	pending *pendingRestore
}

// pendingRestore is one armed restore: cancel fires it early, done closes
// once it has run.
type pendingRestore struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Option customizes a Copier during New.
type Option func(*Copier)

// WithClearAfter overrides the restore delay the environment configured
// (PASSWORD_STORE_CLIP_TIME, default 45 seconds).
func WithClearAfter(d time.Duration) Option {
	return func(c *Copier) { c.clearAfter = d }
}

// WithRecorder journals copy operations, typically to the same ledger the
// store uses: clipboard.New(clipboard.WithRecorder(store.Recorder())).
func WithRecorder(r audit.Recorder) Option {
	return func(c *Copier) { c.rec = r }
}

// WithLogger attaches a logger; without it the copier is silent.
func WithLogger(zl zerolog.Logger) Option {
	return func(c *Copier) { c.log = &logger.Logger{Logger: zl} }
}

// New builds a Copier with the restore delay taken from the environment.
func New(opts ...Option) (*Copier, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	c := &Copier{
		readAll:    atotto.ReadAll,
		writeAll:   atotto.WriteAll,
		after:      time.After,
		clearAfter: time.Duration(cfg.Clipboard.ClipTime) * time.Second,
		rec:        audit.Nop(),
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Copy decrypts the secret at path through a short-lived read handle and
// places its first line onto the system clipboard, then schedules the
// restore. The previous clipboard content comes back once the delay
// elapses, unless the clipboard was overwritten by someone else in the
// meantime; in that case it is left alone.
func (c *Copier) Copy(ctx context.Context, src Source, path string) error {
	err := c.copy(ctx, src, path)
	if recErr := c.rec.Record(ctx, audit.NewEvent(audit.OpCopy, path, "", err)); recErr != nil {
		c.log.Warn().Err(recErr).Str("path", path).Msg("audit record failed")
	}
	return err
}

func (c *Copier) copy(ctx context.Context, src Source, path string) error {
	h, err := src.OpenRead(ctx, path)
	if err != nil {
		return err
	}
	defer h.Close()

	plaintext, err := h.Plaintext(ctx)
	if err != nil {
		return err
	}

	line := firstLine(plaintext)
	if line == "" {
		return fmt.Errorf("%w: %s", ErrNothingToCopy, path)
	}

	// Settle a restore still pending from an earlier copy first, so the
	// previous content captured below is never itself a secret.
	c.Stop()

	previous, err := c.readAll()
	if err != nil {
		// Unreadable previous content degrades the restore to a clear.
		c.log.Debug().Err(err).Msg("clipboard read failed, restore will clear")
		previous = ""
	}

	if err := c.writeAll(line); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}

	c.scheduleRestore(line, previous)
	c.log.Debug().Str("path", path).Dur("clear_after", c.clearAfter).Msg("copied to clipboard")
	return nil
}

// scheduleRestore arms the restore timer. The caller has already settled
// any previously pending restore; should another copy slip in between, the
// displaced restore is settled here rather than leaked.
func (c *Copier) scheduleRestore(copied, previous string) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &pendingRestore{cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	displaced := c.pending
	c.pending = p
	c.mu.Unlock()

	go func() {
		defer close(p.done)
		select {
		case <-ctx.Done():
		case <-c.after(c.clearAfter):
		}
		c.restore(copied, previous)
	}()

	settle(displaced)
}

// restore puts previous back on the clipboard, unless the clipboard no
// longer holds what this copier put there.
func (c *Copier) restore(copied, previous string) {
	current, err := c.readAll()
	if err == nil && current != copied {
		return
	}

	if err := c.writeAll(previous); err != nil {
		c.log.Warn().Err(err).Msg("clipboard restore failed")
		return
	}
	c.log.Debug().Msg("clipboard restored")
}

// Stop settles a pending restore right away and blocks until it has run.
// Safe to call when nothing is pending (no-op in that case).
func (c *Copier) Stop() {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	c.mu.Unlock()

	settle(p)
}

// settle fires a pending restore early and waits for it to finish.
func settle(p *pendingRestore) {
	if p == nil {
		return
	}
	p.cancel()
	<-p.done
}

// firstLine extracts the first line of plaintext, without the line break.
// A trailing carriage return is dropped so CRLF files behave.
func firstLine(plaintext []byte) string {
	line := plaintext
	if i := bytes.IndexByte(plaintext, '\n'); i >= 0 {
		line = plaintext[:i]
	}
	return string(bytes.TrimSuffix(line, []byte("\r")))
}
