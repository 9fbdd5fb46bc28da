// Package assets loads rig files, caches them by path and reloads them
// when they change on disk.
package assets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/highlands/internal/logger"
	"github.com/Faultbox/highlands/pkg/rig"
)

// ErrClosed is returned by operations on a closed manager.
var ErrClosed = errors.New("asset manager closed")

// DefaultDebounce is how long the watcher waits for a file to settle
// before re-parsing it. Editors often write a file in several steps.
const DefaultDebounce = 50 * time.Millisecond

// ReloadEvent reports a re-parsed rig file. On failure Err is set and Rig
// is nil; the previously cached rig stays in place.
type ReloadEvent struct {
	Path string
	Rig  *rig.Rig
	Err  error
}

// Manager loads rig files and shares the parsed rigs between callers.
type Manager struct {
	opts     rig.Options
	cache    *Cache
	debounce time.Duration

	mu      sync.Mutex
	subs    map[int]func(ReloadEvent)
	nextSub int
	watcher *fsnotify.Watcher
	dirs    map[string]bool
	pending map[string]*time.Timer
	closed  bool
	wg      sync.WaitGroup
}

// NewManager creates a manager that parses rigs with opts.
func NewManager(opts rig.Options) *Manager {
	return &Manager{
		opts:     opts,
		cache:    NewCache(),
		debounce: DefaultDebounce,
		subs:     make(map[int]func(ReloadEvent)),
		dirs:     make(map[string]bool),
		pending:  make(map[string]*time.Timer),
	}
}

// SetDebounce changes the watcher settle delay. Call before Watch.
func (m *Manager) SetDebounce(d time.Duration) {
	m.mu.Lock()
	m.debounce = d
	m.mu.Unlock()
}

// Load returns the rig at path, parsing it on first use.
func (m *Manager) Load(path string) (*rig.Rig, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if r, ok := m.cache.Get(key); ok {
		return r, nil
	}

	r, err := m.parse(key)
	if err != nil {
		return nil, err
	}
	m.cache.Set(key, r)

	if err := m.watchDir(filepath.Dir(key)); err != nil {
		logger.Warn("cannot watch rig directory", zap.String("path", key), zap.Error(err))
	}
	return r, nil
}

// Reload re-parses a cached rig and notifies subscribers. The cache keeps
// the previous rig when parsing fails.
func (m *Manager) Reload(path string) (*rig.Rig, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	r, err := m.parse(key)
	if err == nil {
		m.cache.Set(key, r)
		logger.Info("rig reloaded", zap.String("path", key), zap.Int("clips", r.Library.Len()))
	} else {
		logger.Error("rig reload failed", zap.String("path", key), zap.Error(err))
	}

	m.notify(ReloadEvent{Path: key, Rig: r, Err: err})
	return r, err
}

func (m *Manager) parse(path string) (*rig.Rig, error) {
	start := time.Now()
	r, err := rig.Load(path, m.opts)
	if err != nil {
		return nil, err
	}
	for _, w := range r.Warnings {
		logger.Warn("rig import", zap.String("path", path), zap.String("warning", w))
	}
	logger.Debug("rig parsed",
		zap.String("path", path),
		zap.Int("joints", r.Skeleton.Len()),
		zap.Int("skins", len(r.Skins)),
		zap.Int("clips", r.Library.Len()),
		zap.Duration("took", time.Since(start)),
	)
	return r, nil
}

// Subscribe registers fn for reload events. fn runs on the watcher
// goroutine or on the Reload caller. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(ReloadEvent)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) notify(ev ReloadEvent) {
	m.mu.Lock()
	subs := make([]func(ReloadEvent), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Watch starts reloading cached rigs when their files change. It returns
// once the watcher is running; watching stops when ctx is done or the
// manager is closed.
func (m *Manager) Watch(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.watcher != nil {
		m.mu.Unlock()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("creating watcher: %w", err)
	}
	m.watcher = w

	// Directories rather than files, so atomic saves (write + rename)
	// keep being seen
	for dir := range m.dirs {
		if err := w.Add(dir); err != nil {
			logger.Warn("cannot watch rig directory", zap.String("dir", dir), zap.Error(err))
		}
	}
	m.mu.Unlock()

	m.wg.Add(1)
	go m.watchLoop(ctx, w)
	return nil
}

func (m *Manager) watchDir(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dirs[dir] {
		return nil
	}
	m.dirs[dir] = true
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Add(dir)
}

func (m *Manager) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			m.stopWatcher()
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			path := filepath.Clean(ev.Name)
			if _, cached := m.cache.Peek(path); !cached {
				continue
			}
			m.schedule(path)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("rig watcher error", zap.Error(err))
		}
	}
}

// schedule reloads path once no further events arrive within the
// debounce window.
func (m *Manager) schedule(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if t, ok := m.pending[path]; ok {
		t.Reset(m.debounce)
		return
	}
	m.pending[path] = time.AfterFunc(m.debounce, func() {
		m.mu.Lock()
		delete(m.pending, path)
		closed := m.closed
		m.mu.Unlock()
		if !closed {
			_, _ = m.Reload(path)
		}
	})
}

func (m *Manager) stopWatcher() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for path, t := range m.pending {
		t.Stop()
		delete(m.pending, path)
	}
	if m.watcher != nil {
		_ = m.watcher.Close()
		m.watcher = nil
	}
}

// Stats returns cache hit and miss counts.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Paths returns the cached rig paths.
func (m *Manager) Paths() []string {
	return m.cache.Keys()
}

// Close stops watching and drops every cached rig.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.stopWatcher()
	m.wg.Wait()
	m.cache.Clear()
	return nil
}

// Cache maps rig paths to parsed rigs.
type Cache struct {
	data map[string]*rig.Rig
	mu   sync.RWMutex

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*rig.Rig),
	}
}

// Get retrieves a rig and counts the lookup.
func (c *Cache) Get(key string) (*rig.Rig, bool) {
	r, ok := c.Peek(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return r, ok
}

// Peek retrieves a rig without touching the statistics.
func (c *Cache) Peek(key string) (*rig.Rig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.data[key]
	return r, ok
}

// Set stores a rig.
func (c *Cache) Set(key string, r *rig.Rig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = r
}

// Keys returns the cached paths in no particular order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// Clear empties the cache and resets its statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*rig.Rig)
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	return int(c.hits.Load()), int(c.misses.Load())
}
