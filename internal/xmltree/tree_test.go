package xmltree

import (
	"io/fs"
	"testing"

	"github.com/beevik/etree"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacoelho/sdf/errors"
)

func TestReadSDFFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/m/model.sdf", []byte(`<sdf version="1.5"><model name="m"/></sdf>`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/m/legacy.sdf", []byte(`<gazebo version="1.0"><model name="m"/></gazebo>`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/m/robot.urdf", []byte(`<robot name="r"/>`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/m/broken.sdf", []byte(`<sdf><model></sdf>`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/m/empty.sdf", []byte(``), 0o644))

	doc, err := ReadSDFFile(fsys, "/m/model.sdf")
	require.NoError(t, err)
	assert.Equal(t, "1.5", doc.Root().SelectAttrValue("version", ""))

	_, err = ReadSDFFile(fsys, "/m/legacy.sdf")
	require.NoError(t, err)

	_, err = ReadSDFFile(fsys, "/m/robot.urdf")
	assert.ErrorIs(t, err, errors.ErrNotSDF)

	_, err = ReadSDFFile(fsys, "/m/broken.sdf")
	assert.ErrorIs(t, err, errors.ErrInvalidXML)

	_, err = ReadSDFFile(fsys, "/m/empty.sdf")
	assert.ErrorIs(t, err, errors.ErrInvalidXML)

	_, err = ReadSDFFile(fsys, "/m/missing.sdf")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSingleChild(t *testing.T) {
	doc, err := ReadString(`<joint><parent>a</parent><axis/><axis/></joint>`)
	require.NoError(t, err)
	joint := doc.Root()

	parent, err := SingleChild(joint, "parent", true)
	require.NoError(t, err)
	assert.Equal(t, "a", Text(parent))

	missing, err := SingleChild(joint, "child", false)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = SingleChild(joint, "child", true)
	assert.ErrorIs(t, err, errors.ErrInvalid)

	_, err = SingleChild(joint, "axis", false)
	assert.ErrorIs(t, err, errors.ErrInvalid)
}

func TestSpliceKeepsOrder(t *testing.T) {
	doc, err := ReadString(`<model><a/><sub><x/><y/></sub><b/></model>`)
	require.NoError(t, err)
	model := doc.Root()
	sub := model.SelectElement("sub")

	require.NoError(t, Splice(model, sub, sub.ChildElements()))

	assert.Equal(t, "<model><a/><x/><y/><b/></model>", String(model))
}

func TestSpliceRejectsForeignNode(t *testing.T) {
	model := etree.NewElement("model")
	other := etree.NewElement("other")
	assert.Error(t, Splice(model, other, nil))
}

func TestReplaceOrAppend(t *testing.T) {
	doc, err := ReadString(`<model><pose>0 0 0 0 0 0</pose><link/></model>`)
	require.NoError(t, err)
	model := doc.Root()

	pose := etree.NewElement("pose")
	pose.SetText("1 2 3 0 0 0")
	ReplaceOrAppend(model, pose)
	static := etree.NewElement("static")
	static.SetText("true")
	ReplaceOrAppend(model, static)

	assert.Equal(t, "<model><pose>1 2 3 0 0 0</pose><link/><static>true</static></model>", String(model))
}

func TestReplaceOrAppendDropsEveryMatch(t *testing.T) {
	doc, err := ReadString(`<model><link/><pose>1 0 0 0 0 0</pose><static>false</static><pose>2 0 0 0 0 0</pose></model>`)
	require.NoError(t, err)
	model := doc.Root()

	pose := etree.NewElement("pose")
	pose.SetText("3 0 0 0 0 0")
	ReplaceOrAppend(model, pose)

	assert.Equal(t, "<model><link/><pose>3 0 0 0 0 0</pose><static>false</static></model>", String(model))
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("sdf", "1.6", etree.NewElement("model"))
	assert.Equal(t, `<sdf version="1.6"><model/></sdf>`, String(doc.Root()))

	out, err := Indented(doc)
	require.NoError(t, err)
	assert.Contains(t, out, "\n  <model/>")
}
