package sdf

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacoelho/sdf/errors"
	"github.com/jacoelho/sdf/internal/pose"
)

func parseNode(t *testing.T, xml string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xml))
	require.NotNil(t, doc.Root())
	return doc.Root()
}

func parseModel(t *testing.T, xml string) *Model {
	t.Helper()
	m, err := NewModel(parseNode(t, xml), nil)
	require.NoError(t, err)
	return m
}

func names[T any](entities []Named[T]) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Name)
	}
	return out
}

func TestEmptyModel(t *testing.T) {
	m := parseModel(t, `<model/>`)

	assert.Empty(t, m.Links())
	assert.Empty(t, m.Joints())
	assert.Empty(t, m.Plugins())
	assert.Empty(t, m.Models())
	static, err := m.Static()
	require.NoError(t, err)
	assert.False(t, static)
	_, ok := m.CanonicalLink()
	assert.False(t, ok)
}

func TestNewModelRejectsOtherTags(t *testing.T) {
	_, err := NewModel(parseNode(t, `<link name="l"/>`), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalid))
	assert.Contains(t, err.Error(), "expected the XML element to be a 'model' tag, but got 'link'")
}

func TestJointsResolveRegardlessOfDeclarationOrder(t *testing.T) {
	m := parseModel(t, `<model name="m">
  <joint name="j" type="revolute"><parent>parent_l</parent><child>child_l</child></joint>
  <link name="parent_l"/>
  <link name="child_l"/>
</model>`)

	j, ok := m.FindJointByName("j")
	require.True(t, ok)
	parent, err := j.ParentLink()
	require.NoError(t, err)
	child, err := j.ChildLink()
	require.NoError(t, err)

	wantParent, _ := m.FindLinkByName("parent_l")
	wantChild, _ := m.FindLinkByName("child_l")
	assert.Equal(t, wantParent, parent)
	assert.Equal(t, wantChild, child)
}

func TestJointsAcrossNestedModels(t *testing.T) {
	m := parseModel(t, `<model name="root">
  <link name="parent_l"/>
  <model name="child_m">
    <link name="parent_l"/>
    <link name="child_l"/>
    <joint name="child_j"><parent>parent_l</parent><child>child_l</child></joint>
  </model>
  <joint name="root_j"><parent>parent_l</parent><child>child_m::child_l</child></joint>
</model>`)

	rootJ, ok := m.FindJointByName("root_j")
	require.True(t, ok)
	parent, _ := rootJ.ParentLink()
	child, _ := rootJ.ChildLink()
	want, _ := m.FindLinkByName("parent_l")
	assert.Equal(t, want, parent)
	want, _ = m.FindLinkByName("child_m::child_l")
	assert.Equal(t, want, child)

	childJ, ok := m.FindJointByName("child_m::child_j")
	require.True(t, ok)
	parent, _ = childJ.ParentLink()
	want, _ = m.FindLinkByName("child_m::parent_l")
	assert.Equal(t, want, parent)
	assert.Equal(t, "root::child_m::parent_l", parent.FullName())
}

func TestJointToWorld(t *testing.T) {
	m := parseModel(t, `<model name="m">
  <link name="l"/>
  <joint name="j" type="fixed"><parent>world</parent><child>l</child></joint>
</model>`)

	j, _ := m.FindJointByName("j")
	parent, err := j.ParentLink()
	require.NoError(t, err)
	assert.True(t, parent.IsWorld())
	assert.Equal(t, WorldLink(), parent)
	assert.Equal(t, WorldLinkName, parent.Name())
}

func TestJointResolutionErrors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want []string
	}{
		{
			name: "missing parent",
			xml:  `<model name="m"><link name="a"/><joint name="j"><child>a</child></joint></model>`,
			want: []string{"'parent'", "not found"},
		},
		{
			name: "missing child",
			xml:  `<model name="m"><link name="a"/><joint name="j"><parent>a</parent></joint></model>`,
			want: []string{"'child'", "not found"},
		},
		{
			name: "unknown link",
			xml: `<model name="m"><link name="b"/><link name="a"/>
  <joint name="j"><parent>a</parent><child>nope</child></joint></model>`,
			want: []string{"'nope'", "known links: a, b"},
		},
		{
			name: "nested unknown link",
			xml: `<model name="m"><model name="s"><link name="a"/>
  <joint name="j"><parent>a</parent><child>s::a</child></joint></model></model>`,
			want: []string{"'s::a'", "known links: a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(parseNode(t, tt.xml), nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalid))
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestDuplicateNamesAreInvalid(t *testing.T) {
	_, err := NewModel(parseNode(t, `<model name="m">
  <link name="s::l"/>
  <model name="s"><link name="l"/></model>
</model>`), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalid))
	assert.Contains(t, err.Error(), "duplicate link 's::l'")
}

func TestModelEnumeration(t *testing.T) {
	m := parseModel(t, `<model name="a">
  <link name="test0"><sensor name="s0"/></link>
  <frame name="f0"/>
  <plugin name="p0" filename="libp0.so"/>
  <model name="sub">
    <link name="test1"><sensor name="s1"/></link>
    <frame name="f1"/>
    <model name="subsub">
      <link name="test2"/>
      <plugin name="p2" filename="libp2.so"/>
    </model>
  </model>
</model>`)

	assert.Equal(t, []string{"test0", "sub::test1", "sub::subsub::test2"}, names(m.Links()))
	assert.Equal(t, []string{"f0", "sub::f1"}, names(m.Frames()))
	assert.Equal(t, []string{"p0", "sub::subsub::p2"}, names(m.Plugins()))
	assert.Equal(t, []string{"sub", "sub::subsub"}, names(m.AllModels()))

	require.Len(t, m.DirectLinks(), 1)
	assert.Equal(t, "test0", m.DirectLinks()[0].Name())
	require.Len(t, m.Models(), 1)
	assert.Same(t, m, m.Models()[0].Parent())

	sensors, err := m.Sensors()
	require.NoError(t, err)
	require.Len(t, sensors, 2)
	assert.Equal(t, "s0", sensors[0].Name())
	assert.Equal(t, "s1", sensors[1].Name())

	direct, err := m.DirectSensors()
	require.NoError(t, err)
	require.Len(t, direct, 1)
	assert.Equal(t, "s0", direct[0].Name())
}

func TestModelFindByName(t *testing.T) {
	m := parseModel(t, `<model name="a">
  <link name="l"/>
  <model name="sub"><link name="l"/><frame name="f"/></model>
  <joint name="j" type="fixed"><parent>l</parent><child>sub::l</child></joint>
</model>`)

	tests := []struct {
		name string
		kind Kind
	}{
		{"l", KindLink},
		{"sub::l", KindLink},
		{"j", KindJoint},
		{"sub::f", KindFrame},
		{"sub", KindModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := m.FindByName(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.kind, e.Kind())
		})
	}

	_, ok := m.FindByName("sub::missing")
	assert.False(t, ok)
	sub, ok := m.FindModelByName("sub")
	require.True(t, ok)
	frame, ok := sub.FindFrameByName("f")
	require.True(t, ok)
	assert.Equal(t, "a::sub::f", frame.FullName())
}

func TestCanonicalLink(t *testing.T) {
	t.Run("first link at its level", func(t *testing.T) {
		m := parseModel(t, `<model><link name="l"/><link name="l2"/></model>`)
		link, ok := m.CanonicalLink()
		require.True(t, ok)
		assert.Equal(t, "l", link.Name())
	})

	t.Run("inherited by submodels", func(t *testing.T) {
		m := parseModel(t, `<model><link name="l"/><model name="sub"/></model>`)
		want, _ := m.CanonicalLink()
		got, ok := m.Models()[0].CanonicalLink()
		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("inherited even when the submodel has links", func(t *testing.T) {
		m := parseModel(t, `<model><link name="l"/><model name="sub"><link name="subl"/></model></model>`)
		want, _ := m.CanonicalLink()
		got, _ := m.Models()[0].CanonicalLink()
		assert.Equal(t, want, got)
		assert.Equal(t, "l", got.Name())
	})

	t.Run("taken from the submodel when the model has no link", func(t *testing.T) {
		m := parseModel(t, `<model><model name="sub"><link name="l"/></model></model>`)
		sub := m.Models()[0]
		got, ok := m.CanonicalLink()
		require.True(t, ok)
		assert.Equal(t, sub.DirectLinks()[0], got)
		own, _ := sub.CanonicalLink()
		assert.Equal(t, sub.DirectLinks()[0], own)
	})

	t.Run("depth-first across submodels", func(t *testing.T) {
		m := parseModel(t, `<model><model name="first"/><model name="sub"><link name="l"/></model></model>`)
		subs := m.Models()
		want, ok := subs[1].CanonicalLink()
		require.True(t, ok)
		first, ok := subs[0].CanonicalLink()
		require.True(t, ok)
		assert.Equal(t, want, first)
		got, _ := m.CanonicalLink()
		assert.Equal(t, want, got)
	})
}

func TestModelStaticAndPose(t *testing.T) {
	m := parseModel(t, `<model><static>true</static><pose>1 2 3 0 0 2</pose></model>`)

	static, err := m.Static()
	require.NoError(t, err)
	assert.True(t, static)

	p, err := m.Pose()
	require.NoError(t, err)
	assert.True(t, p.ApproxEqual(pose.FromRPY(1, 2, 3, 0, 0, 2), pose.Tolerance))

	bad := parseModel(t, `<model><static>maybe</static><pose>1 2</pose></model>`)
	_, err = bad.Static()
	assert.True(t, errors.Is(err, errors.ErrInvalid))
	_, err = bad.Pose()
	assert.True(t, errors.Is(err, errors.ErrInvalid))

	twice := parseModel(t, `<model><pose>0 0 0 0 0 0</pose><pose>0 0 0 0 0 0</pose></model>`)
	_, err = twice.Pose()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one pose child")
}
