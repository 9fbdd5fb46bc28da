package anim

import "github.com/tanema/gween/ease"

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in_quad":      ease.InQuad,
	"out_quad":     ease.OutQuad,
	"in_out_quad":  ease.InOutQuad,
	"in_out_cubic": ease.InOutCubic,
	"in_out_sine":  ease.InOutSine,
}

// EaseByName returns a named cross-fade easing. Unknown names return
// ease.Linear and false.
func EaseByName(name string) (ease.TweenFunc, bool) {
	fn, ok := easings[name]
	if !ok {
		return ease.Linear, false
	}
	return fn, true
}
