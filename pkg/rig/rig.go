// Package rig loads skeletons, skins and animation clips from YAML rig
// documents.
package rig

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/highlands/pkg/anim"
	"github.com/Faultbox/highlands/pkg/math"
	"github.com/Faultbox/highlands/pkg/skeleton"
)

var (
	ErrDuplicateJoint  = errors.New("duplicate joint name")
	ErrUnknownParent   = errors.New("unknown parent joint")
	ErrUnknownJoint    = errors.New("unknown joint")
	ErrInvalidKey      = errors.New("invalid keyframe")
	ErrDuplicateClip   = errors.New("duplicate clip name")
	ErrMissingJointRef = errors.New("joint name is empty")
	ErrInvalidSpeed    = errors.New("clip speed must not be negative")
)

// unitTolerance is how far a rotation key's norm may drift from 1 before
// the importer reports it as repaired.
const unitTolerance = 1e-3

// Document is the YAML layout of a rig file.
type Document struct {
	Name   string     `yaml:"name"`
	Joints []JointDoc `yaml:"joints"`
	Skins  []SkinDoc  `yaml:"skins,omitempty"`
	Clips  []ClipDoc  `yaml:"clips,omitempty"`
}

// JointDoc describes one joint. Parent names another joint; empty for a
// root. Matrix, when present, replaces translation/rotation/scale.
type JointDoc struct {
	Name        string       `yaml:"name"`
	Parent      string       `yaml:"parent,omitempty"`
	Translation *[3]float32  `yaml:"translation,omitempty"`
	Rotation    *[4]float32  `yaml:"rotation,omitempty"`
	Scale       *[3]float32  `yaml:"scale,omitempty"`
	Matrix      *[16]float32 `yaml:"matrix,omitempty"`
	InverseBind *[16]float32 `yaml:"inverse_bind,omitempty"`
}

// SkinDoc lists the joints a mesh is bound to, by name, in palette order.
type SkinDoc struct {
	Name   string   `yaml:"name"`
	Root   string   `yaml:"root,omitempty"`
	Joints []string `yaml:"joints"`
}

// ClipDoc is one animation clip. Keys are rows of [time, values...].
type ClipDoc struct {
	Name   string                  `yaml:"name"`
	Speed  float32                 `yaml:"speed,omitempty"`
	Repeat *bool                   `yaml:"repeat,omitempty"`
	Joints map[string]JointAnimDoc `yaml:"joints"`
}

// JointAnimDoc holds the channels of one joint path.
type JointAnimDoc struct {
	Translations [][]float32 `yaml:"translations,omitempty"`
	Rotations    [][]float32 `yaml:"rotations,omitempty"`
	Scales       [][]float32 `yaml:"scales,omitempty"`
}

// Options controls clip defaults not given by the document.
type Options struct {
	// Speed is used for clips without a speed. Zero means 1.
	Speed float32
	// Repeat is used for clips without a repeat flag.
	Repeat bool
}

// DefaultOptions returns looping clips at normal speed.
func DefaultOptions() Options {
	return Options{Speed: 1, Repeat: true}
}

// Rig is an imported skeleton with its skins and clips.
type Rig struct {
	Name     string
	Skeleton *skeleton.Skeleton
	Skins    []*skeleton.Skin
	Library  *anim.Library
	// Warnings lists repairs made while importing: normalized rotations,
	// reordered keys, dropped empty tracks, clip paths missing from the
	// skeleton.
	Warnings []string
}

// Load reads and parses a rig file.
func Load(path string, opts Options) (*Rig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := Parse(data, opts)
	if err != nil {
		return nil, fmt.Errorf("parsing rig %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes a YAML rig document.
func Parse(data []byte, opts Options) (*Rig, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return Build(&doc, opts)
}

// Build converts a decoded document into a rig.
func Build(doc *Document, opts Options) (*Rig, error) {
	r := &Rig{Name: doc.Name, Library: anim.NewLibrary()}

	skel, err := r.buildSkeleton(doc.Joints)
	if err != nil {
		return nil, err
	}
	r.Skeleton = skel

	for _, sd := range doc.Skins {
		skin, err := r.buildSkin(sd)
		if err != nil {
			return nil, err
		}
		r.Skins = append(r.Skins, skin)
	}

	for _, cd := range doc.Clips {
		if _, dup := r.Library.Get(cd.Name); dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateClip, cd.Name)
		}
		clip, err := r.buildClip(cd, opts)
		if err != nil {
			return nil, fmt.Errorf("clip %s: %w", cd.Name, err)
		}
		r.Library.Add(clip)
	}

	return r, nil
}

func (r *Rig) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Rig) buildSkeleton(docs []JointDoc) (*skeleton.Skeleton, error) {
	index := make(map[string]int, len(docs))
	for i, jd := range docs {
		if jd.Name == "" {
			return nil, fmt.Errorf("joint %d: %w", i, ErrMissingJointRef)
		}
		if _, dup := index[jd.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateJoint, jd.Name)
		}
		index[jd.Name] = i
	}

	joints := make([]skeleton.Joint, len(docs))
	missingBind := false
	for i, jd := range docs {
		parent := -1
		if jd.Parent != "" {
			p, ok := index[jd.Parent]
			if !ok {
				return nil, fmt.Errorf("joint %s: %w: %s", jd.Name, ErrUnknownParent, jd.Parent)
			}
			parent = p
		}

		rest := math.TransformIdentity()
		if jd.Translation != nil {
			rest.Translation = math.Vec3FromArray(*jd.Translation)
		}
		if jd.Rotation != nil {
			q := math.QuatFromArray(*jd.Rotation)
			if !q.IsNormalized(unitTolerance) {
				r.warnf("joint %s: normalized rest rotation", jd.Name)
			}
			rest.Rotation = q.Normalize()
		}
		if jd.Scale != nil {
			rest.Scale = math.Vec3FromArray(*jd.Scale)
		}

		joints[i] = skeleton.Joint{
			Name:   jd.Name,
			Parent: parent,
			Rest:   rest,
		}
		if jd.Matrix != nil {
			m := math.Mat4(*jd.Matrix)
			joints[i].Matrix = &m
		}
		if jd.InverseBind != nil {
			joints[i].InverseBind = math.Mat4(*jd.InverseBind)
		} else {
			missingBind = true
		}
	}

	skel, err := skeleton.New(joints)
	if err != nil || !missingBind {
		return skel, err
	}

	// Bind pose defaults to the rest pose
	for i, jd := range docs {
		if jd.InverseBind == nil {
			joints[i].InverseBind = skel.GlobalTransform(i).Inverse()
		}
	}
	return skeleton.New(joints)
}

func (r *Rig) buildSkin(sd SkinDoc) (*skeleton.Skin, error) {
	lookup := func(name string) (int, error) {
		if i, ok := r.Skeleton.Index(name); ok {
			return i, nil
		}
		if i, ok := r.Skeleton.IndexByName(name); ok {
			return i, nil
		}
		return -1, fmt.Errorf("skin %s: %w: %s", sd.Name, ErrUnknownJoint, name)
	}

	joints := make([]int, len(sd.Joints))
	for k, name := range sd.Joints {
		i, err := lookup(name)
		if err != nil {
			return nil, err
		}
		joints[k] = i
	}

	root := -1
	if sd.Root != "" {
		i, err := lookup(sd.Root)
		if err != nil {
			return nil, err
		}
		root = i
	}
	return skeleton.NewSkin(r.Skeleton, sd.Name, joints, root)
}

func (r *Rig) buildClip(cd ClipDoc, opts Options) (*anim.Clip, error) {
	if cd.Speed < 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidSpeed, cd.Speed)
	}
	joints := make(map[string]*anim.JointAnimation, len(cd.Joints))
	for _, path := range slices.Sorted(maps.Keys(cd.Joints)) {
		jd := cd.Joints[path]
		if _, ok := r.Skeleton.Index(path); !ok {
			r.warnf("clip %s: joint path %s not in skeleton", cd.Name, path)
		}

		translations, err := vectorKeys(jd.Translations)
		if err != nil {
			return nil, fmt.Errorf("%s translations: %w", path, err)
		}
		scales, err := vectorKeys(jd.Scales)
		if err != nil {
			return nil, fmt.Errorf("%s scales: %w", path, err)
		}
		rotations, err := rotationKeys(jd.Rotations)
		if err != nil {
			return nil, fmt.Errorf("%s rotations: %w", path, err)
		}

		ja := &anim.JointAnimation{}
		if len(translations) > 0 {
			sortKeys(r, cd.Name, path, "translations", translations)
			ja.Translations = anim.NewVectorTrack(translations)
		}
		if len(rotations) > 0 {
			for _, k := range rotations {
				if !k.Value.IsNormalized(unitTolerance) {
					r.warnf("clip %s: %s rotations normalized", cd.Name, path)
					break
				}
			}
			sortKeys(r, cd.Name, path, "rotations", rotations)
			ja.Rotations = anim.NewRotationTrack(rotations)
		}
		if len(scales) > 0 {
			sortKeys(r, cd.Name, path, "scales", scales)
			ja.Scales = anim.NewVectorTrack(scales)
		}
		if ja.Translations == nil && ja.Rotations == nil && ja.Scales == nil {
			r.warnf("clip %s: %s has no keys, dropped", cd.Name, path)
			continue
		}
		joints[path] = ja
	}

	clip := anim.NewClip(cd.Name, joints)
	clip.Speed = cd.Speed
	if clip.Speed == 0 {
		clip.Speed = opts.Speed
	}
	if clip.Speed == 0 {
		clip.Speed = 1
	}
	clip.Repeat = opts.Repeat
	if cd.Repeat != nil {
		clip.Repeat = *cd.Repeat
	}
	return clip, nil
}

func vectorKeys(rows [][]float32) ([]anim.Keyframe, error) {
	keys := make([]anim.Keyframe, 0, len(rows))
	for i, row := range rows {
		if len(row) != 4 {
			return nil, fmt.Errorf("%w: row %d has %d values, want 4", ErrInvalidKey, i, len(row))
		}
		if row[0] < 0 {
			return nil, fmt.Errorf("%w: row %d has negative time", ErrInvalidKey, i)
		}
		keys = append(keys, anim.Keyframe{Time: row[0], Value: math.Vec3{X: row[1], Y: row[2], Z: row[3]}})
	}
	return keys, nil
}

func rotationKeys(rows [][]float32) ([]anim.KeyRotation, error) {
	keys := make([]anim.KeyRotation, 0, len(rows))
	for i, row := range rows {
		if len(row) != 5 {
			return nil, fmt.Errorf("%w: row %d has %d values, want 5", ErrInvalidKey, i, len(row))
		}
		if row[0] < 0 {
			return nil, fmt.Errorf("%w: row %d has negative time", ErrInvalidKey, i)
		}
		keys = append(keys, anim.KeyRotation{
			Time:  row[0],
			Value: math.Quat{X: row[1], Y: row[2], Z: row[3], W: row[4]},
		})
	}
	return keys, nil
}

// sortKeys orders keys by time, keeping the document order of equal times.
func sortKeys[V any](r *Rig, clip, path, channel string, keys []anim.Key[V]) {
	byTime := func(a, b anim.Key[V]) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	}
	if slices.IsSortedFunc(keys, byTime) {
		return
	}
	slices.SortStableFunc(keys, byTime)
	r.warnf("clip %s: %s %s reordered by time", clip, path, channel)
}
