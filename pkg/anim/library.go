package anim

import "sort"

// Library stores clips by name.
type Library struct {
	clips map[string]*Clip
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{clips: make(map[string]*Clip)}
}

// Add registers a clip, replacing any clip with the same name.
func (l *Library) Add(clip *Clip) {
	if l == nil || clip == nil {
		return
	}
	l.clips[clip.Name] = clip
}

// Get returns a clip by name.
func (l *Library) Get(name string) (*Clip, bool) {
	if l == nil {
		return nil, false
	}
	clip, ok := l.clips[name]
	return clip, ok
}

// Len returns the number of clips.
func (l *Library) Len() int {
	if l == nil {
		return 0
	}
	return len(l.clips)
}

// Names returns clip names in sorted order.
func (l *Library) Names() []string {
	if l == nil {
		return nil
	}
	names := make([]string, 0, len(l.clips))
	for name := range l.clips {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
