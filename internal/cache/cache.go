// Package cache stores rendered clips on disk, addressed by a digest of the
// source and time range. Concurrent requests for the same clip share one
// render, and artifacts are published with a rename so readers never see a
// partial file.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/mudler/xlog"
	"golang.org/x/sync/singleflight"

	"github.com/forPelevin/hlshorts/internal/observe"
)

var ErrEmptySource = errors.New("cache: empty source identifier")

// Request identifies a clip to render.
type Request struct {
	// Source is the stable identifier used in the cache key.
	Source string
	// Input is what the renderer reads. Defaults to Source.
	Input string
	Start float64
	End   float64
}

type Artifact struct {
	Key  string
	Path string
}

type Renderer interface {
	Render(ctx context.Context, req Request, dst string) error
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(ctx context.Context, req Request, dst string) error

func (f RenderFunc) Render(ctx context.Context, req Request, dst string) error {
	return f(ctx, req, dst)
}

type Cache struct {
	dir           string
	ext           string
	renderer      Renderer
	renderTimeout time.Duration
	metrics       *observe.Metrics
	group         singleflight.Group
}

type Option func(*Cache)

// WithExtension sets the artifact file extension (default ".mp4").
func WithExtension(ext string) Option { return func(c *Cache) { c.ext = ext } }

func WithMetrics(m *observe.Metrics) Option { return func(c *Cache) { c.metrics = m } }

// WithRenderTimeout bounds a single render. Zero means no limit.
func WithRenderTimeout(d time.Duration) Option { return func(c *Cache) { c.renderTimeout = d } }

func New(dir string, r Renderer, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache: empty directory")
	}
	if r == nil {
		return nil, errors.New("cache: nil renderer")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	c := &Cache{dir: dir, ext: ".mp4", renderer: r}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c, nil
}

// Key returns the lowercase hex sha256 of "<source>-<start>-<end>".
func Key(source string, start, end float64) string {
	s := source + "-" + formatSeconds(start) + "-" + formatSeconds(end)
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func formatSeconds(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func (c *Cache) path(key string) string { return filepath.Join(c.dir, key+c.ext) }

// Lookup returns the published artifact for key, if any.
func (c *Cache) Lookup(key string) (Artifact, bool, error) {
	p := c.path(key)
	fi, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("cache: stat %s: %w", key, err)
	}
	if !fi.Mode().IsRegular() {
		return Artifact{}, false, fmt.Errorf("cache: %s is not a regular file", p)
	}
	return Artifact{Key: key, Path: p}, true, nil
}

// GetOrRender returns the cached artifact for req, rendering it on a miss.
// Only one render per key runs at a time, across goroutines and processes.
// If ctx is cancelled the caller returns early, but the render keeps going
// and still publishes its result.
func (c *Cache) GetOrRender(ctx context.Context, req Request) (Artifact, error) {
	if req.Source == "" {
		return Artifact{}, ErrEmptySource
	}
	key := Key(req.Source, req.Start, req.End)

	a, ok, err := c.Lookup(key)
	if err != nil {
		return Artifact{}, err
	}
	c.metrics.RecordLookup(ctx, ok)
	if ok {
		return a, nil
	}

	renderCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fill(renderCtx, key, req)
	})
	select {
	case <-ctx.Done():
		xlog.Debug("clip cache caller gave up, render continues", "key", key, "error", ctx.Err())
		return Artifact{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Artifact{}, res.Err
		}
		if res.Shared {
			c.metrics.SharedRenders.Add(ctx, 1)
		}
		return res.Val.(Artifact), nil
	}
}

func (c *Cache) fill(ctx context.Context, key string, req Request) (Artifact, error) {
	lock := flock.New(filepath.Join(c.dir, key+".lock"))
	if err := lock.Lock(); err != nil {
		return Artifact{}, fmt.Errorf("cache: lock %s: %w", key, err)
	}
	defer func() { _ = lock.Unlock() }()

	// Another process may have published while we waited for the lock.
	if a, ok, err := c.Lookup(key); err != nil || ok {
		return a, err
	}

	tmp, err := os.CreateTemp(c.dir, "."+key+"-*"+c.ext)
	if err != nil {
		return Artifact{}, fmt.Errorf("cache: temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	if c.renderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.renderTimeout)
		defer cancel()
	}
	if req.Input == "" {
		req.Input = req.Source
	}

	xlog.Debug("clip cache miss, rendering", "key", key, "source", req.Source, "start", req.Start, "end", req.End)
	started := time.Now()
	err = c.renderer.Render(ctx, req, tmpPath)
	c.metrics.RecordRender(ctx, time.Since(started).Seconds(), err)
	if err != nil {
		_ = os.Remove(tmpPath)
		return Artifact{}, fmt.Errorf("render %s [%s-%s]: %w", req.Source, formatSeconds(req.Start), formatSeconds(req.End), err)
	}

	final := c.path(key)
	if err := os.Rename(tmpPath, final); err != nil {
		_ = os.Remove(tmpPath)
		return Artifact{}, fmt.Errorf("cache: publish %s: %w", key, err)
	}
	xlog.Info("clip cached", "key", key, "source", req.Source, "took", time.Since(started).String())
	return Artifact{Key: key, Path: final}, nil
}
