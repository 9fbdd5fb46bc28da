package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/highlands/internal/assets"
	"github.com/Faultbox/highlands/internal/config"
	"github.com/Faultbox/highlands/internal/logger"
	"github.com/Faultbox/highlands/internal/scene"
	"github.com/Faultbox/highlands/pkg/anim"
	"github.com/Faultbox/highlands/pkg/math"
	"github.com/Faultbox/highlands/pkg/rig"
)

type tool struct {
	cfg *config.Config
	out io.Writer
}

func (t *tool) manager() *assets.Manager {
	return assets.NewManager(rig.Options{
		Speed:  t.cfg.Animation.DefaultSpeed,
		Repeat: t.cfg.Animation.Repeat,
	})
}

// resolve finds a rig argument on disk. Paths that do not exist as given
// are looked up in the configured rig directories, with a .yaml suffix
// added when the name has no extension.
func (t *tool) resolve(name string) string {
	if _, err := os.Stat(name); err == nil || filepath.IsAbs(name) {
		return name
	}
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = append(candidates, name+".yaml")
	}
	for _, dir := range t.cfg.Data.RigPaths {
		for _, c := range candidates {
			p := filepath.Join(dir, c)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return name
}

func (t *tool) load(m *assets.Manager, name string) (*rig.Rig, error) {
	return m.Load(t.resolve(name))
}

// reloads forwards reload events from the watcher goroutine so they can be
// applied between world updates.
func (t *tool) reloads(m *assets.Manager) <-chan assets.ReloadEvent {
	ch := make(chan assets.ReloadEvent, 1)
	m.Subscribe(func(ev assets.ReloadEvent) {
		select {
		case ch <- ev:
		default:
			logger.Warn("reload dropped, previous one still pending", zap.String("path", ev.Path))
		}
	})
	return ch
}

func (t *tool) applyReload(hero *scene.Character, ev assets.ReloadEvent) {
	if ev.Err != nil {
		fmt.Fprintf(t.out, "reload failed: %v\n", ev.Err)
		return
	}
	hero.Rebind(ev.Rig)
	fmt.Fprintf(t.out, "reloaded %s: %d joints, %d clips\n", ev.Path, ev.Rig.Skeleton.Len(), ev.Rig.Library.Len())
}

func (t *tool) info(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: animtool info <rig.yaml>", errUsage)
	}
	m := t.manager()
	defer m.Close()

	r, err := t.load(m, args[0])
	if err != nil {
		return err
	}

	s := r.Skeleton
	fmt.Fprintf(t.out, "Rig: %s\n", r.Name)
	fmt.Fprintf(t.out, "Joints: %d\n", s.Len())
	for _, line := range strings.Split(strings.TrimRight(s.String(), "\n"), "\n") {
		fmt.Fprintf(t.out, "  %s\n", line)
	}

	fmt.Fprintf(t.out, "\nSkins: %d\n", len(r.Skins))
	for _, skin := range r.Skins {
		root := "-"
		if skin.MeshRoot() >= 0 {
			root = s.Path(skin.MeshRoot())
		}
		fmt.Fprintf(t.out, "  %-16s %3d joints  mesh root %s\n", skin.Name(), len(skin.Joints()), root)
	}

	fmt.Fprintf(t.out, "\nClips: %d\n", r.Library.Len())
	for _, name := range r.Library.Names() {
		clip, _ := r.Library.Get(name)
		fmt.Fprintf(t.out, "  %-16s %6.3fs  speed %.2f  repeat %-5t  %d joints\n",
			clip.Name, clip.Duration, clip.Speed, clip.Repeat, len(clip.JointPaths()))
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(t.out, "\nWarnings: %d\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Fprintf(t.out, "  %s\n", w)
		}
	}
	return nil
}

func (t *tool) sample(args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return fmt.Errorf("%w: animtool sample <rig.yaml> <clip> <time> [path]", errUsage)
	}
	at, err := strconv.ParseFloat(args[2], 32)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", args[2], err)
	}

	m := t.manager()
	defer m.Close()
	r, err := t.load(m, args[0])
	if err != nil {
		return err
	}
	clip, err := findClip(r, args[1])
	if err != nil {
		return err
	}

	paths := clip.JointPaths()
	if len(args) == 4 {
		paths = []string{args[3]}
	}

	for _, p := range paths {
		pose, ok := clip.SampleJoint(float32(at), p, math.TransformIdentity())
		if !ok {
			fmt.Fprintf(t.out, "%s  not animated\n", p)
			continue
		}
		fmt.Fprintf(t.out, "%s  t=%s r=%s s=%s\n", p,
			formatVec(pose.Translation), formatQuat(pose.Rotation), formatVec(pose.Scale))
	}
	return nil
}

func (t *tool) play(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	seconds := fs.Float64("seconds", 0, "Playback length (default: one clip length)")
	joint := fs.String("joint", "", "Only print this joint path")
	fs.SetOutput(t.out)

	// Positional arguments come first: play <rig> <clip> [flags]
	if len(args) < 2 {
		return fmt.Errorf("%w: animtool play <rig.yaml> <clip> [-seconds N] [-joint path]", errUsage)
	}
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}

	m := t.manager()
	defer m.Close()
	r, err := t.load(m, args[0])
	if err != nil {
		return err
	}
	clip, err := findClip(r, args[1])
	if err != nil {
		return err
	}

	length := float32(*seconds)
	if length <= 0 {
		length = clip.PlaybackLength()
	}

	world, hero := t.newWorld(r)
	if !hero.Play(clip.Name) {
		return fmt.Errorf("clip %q not found", clip.Name)
	}

	joints := hero.Skeleton().Order()
	if *joint != "" {
		i, ok := hero.Skeleton().Index(*joint)
		if !ok {
			return fmt.Errorf("joint %q not in rig %s", *joint, r.Name)
		}
		joints = []int{i}
	}

	var reloads <-chan assets.ReloadEvent
	if t.cfg.Data.Watch {
		reloads = t.reloads(m)
		if err := m.Watch(ctx); err != nil {
			return err
		}
	}

	dt := float32(t.cfg.FrameTime().Seconds())
	frames := int(length/dt + 0.5)
	for i := 0; i < frames; i++ {
		select {
		case ev := <-reloads:
			t.applyReload(hero, ev)
		default:
		}
		if err := world.Update(ctx, dt); err != nil {
			return err
		}
		f := world.Frame()
		item, _ := f.Item(hero.Name())
		for _, j := range joints {
			pos := item.Model.Mul(item.Joints[j]).Translation()
			fmt.Fprintf(t.out, "%7.3f  %-32s %s\n", f.Time, hero.Skeleton().Path(j), formatVec(pos))
		}
		if hero.Controller().Finished() {
			fmt.Fprintf(t.out, "%7.3f  finished\n", f.Time)
			break
		}
	}
	return nil
}

func (t *tool) watch(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: animtool watch <rig.yaml> [clip]", errUsage)
	}

	m := t.manager()
	defer m.Close()
	r, err := t.load(m, args[0])
	if err != nil {
		return err
	}

	name := ""
	if len(args) == 2 {
		name = args[1]
	} else if names := r.Library.Names(); len(names) > 0 {
		name = names[0]
	}

	world, hero := t.newWorld(r)
	if name != "" && !hero.Play(name) {
		return fmt.Errorf("clip %q not found", name)
	}

	reloads := t.reloads(m)
	if err := m.Watch(ctx); err != nil {
		return err
	}

	logger.Info("watching rig", zap.String("path", args[0]), zap.String("clip", name))
	fmt.Fprintf(t.out, "watching %s\n", args[0])

	frameTime := t.cfg.FrameTime()
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()
	dt := float32(frameTime.Seconds())
	lastReport := time.Now()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopped watching", zap.Uint64("frames", world.Frame().Seq))
			return nil
		case ev := <-reloads:
			t.applyReload(hero, ev)
		case <-ticker.C:
			if err := world.Update(ctx, dt); err != nil {
				if ctx.Err() != nil {
					continue
				}
				return err
			}
			if time.Since(lastReport) >= time.Second {
				lastReport = time.Now()
				f := world.Frame()
				fmt.Fprintf(t.out, "%8.2fs  frame %d  %s %s\n", f.Time, f.Seq, hero.State(), name)
			}
		}
	}
}

func (t *tool) newWorld(r *rig.Rig) (*scene.World, *scene.Character) {
	world := scene.NewWorld(t.cfg.Playback.Workers)
	hero := scene.NewCharacter(r.Name, r)
	fn, _ := anim.EaseByName(t.cfg.Animation.BlendEase)
	hero.SetBlend(float32(t.cfg.Animation.BlendDuration.Seconds()), fn)

	// Root-level node, so the error path is unreachable
	_ = world.Add(scene.NewNode(hero.Name(), scene.KindCharacter, hero))
	return world, hero
}

func findClip(r *rig.Rig, name string) (*anim.Clip, error) {
	clip, ok := r.Library.Get(name)
	if !ok {
		return nil, fmt.Errorf("clip %q not found (available: %s)", name, strings.Join(r.Library.Names(), ", "))
	}
	return clip, nil
}

func formatVec(v math.Vec3) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}

func formatQuat(q math.Quat) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f, %.4f)", q.X, q.Y, q.Z, q.W)
}
