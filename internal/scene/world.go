package scene

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/highlands/internal/logger"
	"github.com/Faultbox/highlands/pkg/math"
)

// ErrNotCamera is returned when the active camera node has no projector.
var ErrNotCamera = errors.New("node has no camera projector")

// DrawItem is everything a renderer needs for one node.
type DrawItem struct {
	Node  string
	Kind  Kind
	Model math.Mat4
	// Joints holds model-space joint transforms, indexed by joint.
	Joints []math.Mat4
	// Palettes holds a skinning palette per skin name.
	Palettes map[string][]math.Mat4
}

// placer cameras position themselves once all nodes have updated.
type placer interface {
	Place(n *Node)
}

// Frame is an immutable snapshot of the world after one update. It is
// safe to read from any goroutine.
type Frame struct {
	Seq        uint64
	Time       float32
	View       math.Mat4
	Projection math.Mat4
	Items      []DrawItem
}

// Item returns the draw item of the named node.
func (f *Frame) Item(name string) (DrawItem, bool) {
	for _, it := range f.Items {
		if it.Node == name {
			return it, true
		}
	}
	return DrawItem{}, false
}

// World owns the scene graph and publishes a Frame after every update.
// Update and graph edits belong to one goroutine; Frame may be called from
// any.
type World struct {
	Root *Node

	mu      sync.Mutex
	camera  *Node
	aspect  float32
	workers int
	time    float32
	seq     uint64

	frame atomic.Pointer[Frame]
}

// NewWorld creates an empty world. workers bounds concurrent node
// updates; 0 means GOMAXPROCS.
func NewWorld(workers int) *World {
	w := &World{
		Root:    NewNode("root", KindGroup, nil),
		aspect:  1,
		workers: workers,
	}
	w.frame.Store(&Frame{View: math.Identity(), Projection: math.Identity()})
	return w
}

// Add attaches n under the root.
func (w *World) Add(n *Node) error {
	return w.Root.AddChild(n)
}

// SetCamera selects the node whose view and projection go into frames.
func (w *World) SetCamera(n *Node) error {
	if n == nil {
		return ErrNilNode
	}
	if _, ok := n.Component.(CameraProjector); !ok {
		return fmt.Errorf("%s: %w", n.Name, ErrNotCamera)
	}
	w.mu.Lock()
	w.camera = n
	w.mu.Unlock()
	return nil
}

// SetAspect sets the viewport width/height ratio used for projections.
func (w *World) SetAspect(aspect float32) {
	w.mu.Lock()
	w.aspect = aspect
	w.mu.Unlock()
}

// Time returns the accumulated update time.
func (w *World) Time() float32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.time
}

// Update advances every updatable node by dt, then publishes a new frame.
// Node updates run concurrently. On error or cancellation no frame is
// published and the previous one stays current.
func (w *World) Update(ctx context.Context, dt float32) error {
	var nodes []*Node
	w.Root.Walk(func(n *Node) bool {
		if _, ok := n.Component.(Updatable); ok {
			nodes = append(nodes, n)
		}
		return true
	})

	g, gctx := errgroup.WithContext(ctx)
	limit := w.workers
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for _, n := range nodes {
		u := n.Component.(Updatable)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := u.Update(n, dt); err != nil {
				return fmt.Errorf("updating %s: %w", n.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.mu.Lock()
	w.time += dt
	w.seq++
	f := &Frame{
		Seq:        w.seq,
		Time:       w.time,
		View:       math.Identity(),
		Projection: math.Identity(),
	}
	if w.camera != nil {
		if p, ok := w.camera.Component.(placer); ok {
			p.Place(w.camera)
		}
		f.View = ViewMatrix(w.camera)
		f.Projection = w.camera.Component.(CameraProjector).Projection(w.aspect)
	}
	w.mu.Unlock()

	collect(w.Root, math.Identity(), f)
	w.frame.Store(f)

	logger.Debug("frame published",
		zap.Uint64("seq", f.Seq),
		zap.Int("nodes", len(nodes)),
		zap.Int("items", len(f.Items)),
	)
	return nil
}

func collect(n *Node, parent math.Mat4, f *Frame) {
	world := parent.Mul(n.LocalMatrix())
	if r, ok := n.Component.(Renderable); ok {
		f.Items = append(f.Items, r.Render(n, world))
	}
	for _, c := range n.children {
		collect(c, world, f)
	}
}

// Frame returns the last published frame. It never returns nil.
func (w *World) Frame() *Frame {
	return w.frame.Load()
}
