package math

// Transform is a decomposed local transform: translation, rotation, scale.
type Transform struct {
	Translation Vec3
	Rotation    Quat
	Scale       Vec3
}

// TransformIdentity returns the rest transform (no offset, no rotation,
// unit scale).
func TransformIdentity() Transform {
	return Transform{Rotation: QuatIdentity(), Scale: Vec3One}
}

// Matrix composes translation * rotation * scale.
func (t Transform) Matrix() Mat4 {
	return Compose(t.Translation, t.Rotation, t.Scale)
}

// Blend interpolates from t towards other by weight w: lerp for translation
// and scale, slerp for rotation.
func (t Transform) Blend(other Transform, w float32) Transform {
	return Transform{
		Translation: t.Translation.Lerp(other.Translation, w),
		Rotation:    t.Rotation.Slerp(other.Rotation, w),
		Scale:       t.Scale.Lerp(other.Scale, w),
	}
}

// TransformFromMatrix decomposes m into a Transform.
func TransformFromMatrix(m Mat4) Transform {
	tr, rot, sc := m.Decompose()
	return Transform{Translation: tr, Rotation: rot, Scale: sc}
}
