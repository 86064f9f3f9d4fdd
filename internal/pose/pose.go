// Package pose decodes and encodes the SDF pose representation
// "x y z roll pitch yaw" and the small numeric leaf values found next to it.
package pose

import (
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/jacoelho/sdf/errors"
)

// Tolerance is the default bound used by ApproxEqual in tests and callers
// comparing decoded poses.
const Tolerance = 1e-6

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// Transform is a rigid transform: a rotation followed by a translation.
type Transform struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// Identity returns the transform that maps every point onto itself.
func Identity() Transform {
	return Transform{Rotation: mgl64.QuatIdent()}
}

// FromRPY builds a transform from a translation and roll/pitch/yaw angles.
// The rotation is Rz(yaw)·Ry(pitch)·Rx(roll).
func FromRPY(x, y, z, roll, pitch, yaw float64) Transform {
	q := mgl64.QuatRotate(yaw, axisZ).
		Mul(mgl64.QuatRotate(pitch, axisY)).
		Mul(mgl64.QuatRotate(roll, axisX))
	return Transform{Translation: mgl64.Vec3{x, y, z}, Rotation: q}
}

// Translate returns a pure translation.
func Translate(v mgl64.Vec3) Transform {
	return Transform{Translation: v, Rotation: mgl64.QuatIdent()}
}

// Rotate returns a pure rotation.
func Rotate(q mgl64.Quat) Transform {
	return Transform{Rotation: q}
}

// RPY returns the roll, pitch and yaw angles of the rotation.
func (t Transform) RPY() (roll, pitch, yaw float64) {
	q := t.Rotation.Normalize()
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]

	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	pitch = math.Asin(mgl64.Clamp(2*(w*y-z*x), -1, 1))
	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return roll, pitch, yaw
}

// Compose returns t∘other: other is applied first, then t.
func (t Transform) Compose(other Transform) Transform {
	return Transform{
		Translation: t.Translation.Add(t.Rotation.Rotate(other.Translation)),
		Rotation:    t.Rotation.Mul(other.Rotation).Normalize(),
	}
}

// Apply maps point v through the transform.
func (t Transform) Apply(v mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(v).Add(t.Translation)
}

// Inverse returns the transform undoing t.
func (t Transform) Inverse() Transform {
	inv := t.Rotation.Inverse()
	return Transform{
		Translation: inv.Rotate(t.Translation).Mul(-1),
		Rotation:    inv,
	}
}

// IsIdentity reports whether t is exactly the identity.
func (t Transform) IsIdentity() bool {
	return t.Translation == (mgl64.Vec3{}) &&
		t.Rotation.V == (mgl64.Vec3{}) &&
		math.Abs(t.Rotation.W) == 1
}

// ApproxEqual compares translations component-wise and rotations as
// orientations, both within eps.
func (t Transform) ApproxEqual(other Transform, eps float64) bool {
	for i := range t.Translation {
		if math.Abs(t.Translation[i]-other.Translation[i]) > eps {
			return false
		}
	}
	return t.Rotation.OrientationEqualThreshold(other.Rotation, eps)
}

func (t Transform) String() string {
	return Encode(t)
}

// Decode reads the pose held by e. A nil element is the identity.
func Decode(e *etree.Element) (Transform, error) {
	if e == nil {
		return Identity(), nil
	}
	t, err := DecodeString(e.Text())
	if err != nil {
		return Transform{}, atElement(err, e)
	}
	return t, nil
}

// DecodeString reads "x y z roll pitch yaw".
func DecodeString(s string) (Transform, error) {
	v, err := numbers(s, 6)
	if err != nil {
		return Transform{}, err
	}
	return FromRPY(v[0], v[1], v[2], v[3], v[4], v[5]), nil
}

// Encode writes t as "x y z roll pitch yaw".
func Encode(t Transform) string {
	roll, pitch, yaw := t.RPY()
	return formatNumbers(t.Translation[0], t.Translation[1], t.Translation[2], roll, pitch, yaw)
}

// Element returns a new pose element holding the encoding of t.
func Element(t Transform) *etree.Element {
	e := etree.NewElement("pose")
	e.SetText(Encode(t))
	return e
}

// Vector3 reads a three-number vector held by e. A nil element is the zero
// vector.
func Vector3(e *etree.Element) (mgl64.Vec3, error) {
	if e == nil {
		return mgl64.Vec3{}, nil
	}
	v, err := Vector3String(e.Text())
	if err != nil {
		return mgl64.Vec3{}, atElement(err, e)
	}
	return v, nil
}

// Vector3String reads "x y z".
func Vector3String(s string) (mgl64.Vec3, error) {
	v, err := numbers(s, 3)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

// EncodeVector3 writes v as "x y z".
func EncodeVector3(v mgl64.Vec3) string {
	return formatNumbers(v[0], v[1], v[2])
}

// Bool reads a boolean leaf: true, 1, false or 0.
func Bool(e *etree.Element) (bool, error) {
	text := strings.TrimSpace(e.Text())
	switch text {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, errors.Newf(errors.ErrInvalid, e.GetPath(),
		"invalid boolean value '%s', expected true or false", text)
}

// Float reads a floating point leaf.
func Float(e *etree.Element) (float64, error) {
	text := strings.TrimSpace(e.Text())
	f, ok := parseNumber(text)
	if !ok {
		return 0, errors.Newf(errors.ErrInvalid, e.GetPath(), "invalid number '%s'", text)
	}
	return f, nil
}

// Int reads an integer leaf.
func Int(e *etree.Element) (int, error) {
	text := strings.TrimSpace(e.Text())
	i, err := strconv.Atoi(text)
	if err != nil {
		return 0, errors.Newf(errors.ErrInvalid, e.GetPath(), "invalid integer '%s'", text)
	}
	return i, nil
}

func numbers(s string, want int) ([]float64, error) {
	text := strings.TrimSpace(s)
	fields := strings.Fields(text)
	if len(fields) != want {
		return nil, errors.Newf(errors.ErrInvalid, "",
			"'%s' has %d entries, expected %d", text, len(fields), want)
	}
	out := make([]float64, want)
	for i, f := range fields {
		v, ok := parseNumber(f)
		if !ok {
			return nil, errors.Newf(errors.ErrInvalid, "", "invalid number '%s' in '%s'", f, text)
		}
		out[i] = v
	}
	return out, nil
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func formatNumbers(values ...float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == 0 {
			v = 0 // drop the sign of -0
		}
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func atElement(err error, e *etree.Element) error {
	if se, ok := err.(*errors.Error); ok && se.Path == "" {
		se.Path = e.GetPath()
		return se
	}
	return err
}
