package include

import (
	"io/fs"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacoelho/sdf/errors"
	"github.com/jacoelho/sdf/internal/modelpath"
	harness "github.com/jacoelho/sdf/internal/testing"
	"github.com/jacoelho/sdf/internal/xmltree"
	"github.com/jacoelho/sdf/pkg/sdfversion"
)

func newExpander(t *testing.T, files ...harness.Files) *Expander {
	t.Helper()
	fsys := harness.MustFS(t, append([]harness.Files{harness.Models()}, files...)...)
	resolver := modelpath.New(modelpath.WithFS(fsys), modelpath.WithSearchPath([]string{harness.ModelsDir}))
	return New(resolver)
}

func topModels(doc *etree.Document) []string {
	var names []string
	for _, m := range doc.Root().SelectElements("model") {
		names = append(names, xmltree.Name(m))
	}
	return names
}

func TestLoadFileSimple(t *testing.T) {
	x := newExpander(t)

	doc, md, err := x.LoadFile(harness.ModelSDF("simple_model"))
	require.NoError(t, err)

	assert.Equal(t, []string{"simple test model"}, topModels(doc))
	assert.Equal(t, harness.ModelSDF("simple_model"), md.Path)
	assert.Empty(t, md.Includes)
	assert.Equal(t, harness.ModelDir("simple_model")+"/visual.dae", doc.FindElement("//uri").Text())
}

func TestLoadFileErrors(t *testing.T) {
	x := newExpander(t)

	_, _, err := x.LoadFile(harness.ModelsDir + "/not_sdf.xml")
	assert.ErrorIs(t, err, errors.ErrNotSDF)

	_, _, err = x.LoadFile(harness.ModelsDir + "/does_not_exist.xml")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "while loading /models/does_not_exist.xml")
}

func TestIncludes(t *testing.T) {
	x := newExpander(t)
	simple := harness.ModelSDF("simple_model")

	doc, md, err := x.LoadFile(harness.ModelSDF("model_with_includes"))
	require.NoError(t, err)

	assert.Equal(t, []string{"simple test model", "first model", "second model"}, topModels(doc))
	assert.Empty(t, doc.FindElements("//include"))
	assert.Equal(t, map[string][]string{
		simple: {"simple test model", "first model", "second model"},
	}, md.Includes)
}

func TestIncludeInjectsTags(t *testing.T) {
	x := newExpander(t)

	doc, _, err := x.LoadFile(harness.ModelSDF("model_with_new_tags_in_include"))
	require.NoError(t, err)

	model := doc.Root().SelectElement("model")
	require.NotNil(t, model)
	assert.Equal(t, "1 0 3 0 5 0", model.SelectElement("pose").Text())
	assert.Equal(t, "true", model.SelectElement("static").Text())
}

func TestIncludeOverridesTags(t *testing.T) {
	x := newExpander(t)

	doc, _, err := x.LoadFile(harness.ModelSDF("model_with_overriding_tags_in_include"))
	require.NoError(t, err)

	model := doc.Root().SelectElement("model")
	poses := model.SelectElements("pose")
	require.Len(t, poses, 1)
	assert.Equal(t, "0 0 0 0 0 0", poses[0].Text())
	assert.Equal(t, "pose", model.ChildElements()[0].Tag)
}

func TestIncludeOverrideReplacesEveryMatch(t *testing.T) {
	x := newExpander(t,
		harness.Model(harness.ModelDir("posed_twice"), "1.5", `<sdf version="1.5">
  <model name="posed twice">
    <pose>1 0 0 0 0 0</pose>
    <link name="link"/>
    <pose>2 0 0 0 0 0</pose>
    <static>false</static>
    <static>false</static>
  </model>
</sdf>`),
		harness.Model(harness.ModelDir("overrides_posed_twice"), "1.5", `<sdf version="1.5">
  <include>
    <uri>model://posed_twice</uri>
    <pose>5 0 0 0 0 0</pose>
    <static>true</static>
  </include>
</sdf>`),
	)

	doc, _, err := x.LoadFile(harness.ModelSDF("overrides_posed_twice"))
	require.NoError(t, err)

	model := doc.Root().SelectElement("model")
	poses := model.SelectElements("pose")
	require.Len(t, poses, 1)
	assert.Equal(t, "5 0 0 0 0 0", poses[0].Text())
	statics := model.SelectElements("static")
	require.Len(t, statics, 1)
	assert.Equal(t, "true", statics[0].Text())
	assert.Equal(t, "pose", model.ChildElements()[0].Tag)
}

func TestURIRewriteSkipsUnexpandedIncludes(t *testing.T) {
	x := newExpander(t,
		harness.Model(harness.ModelDir("include_in_link"), "1.5", `<sdf version="1.5">
  <model name="m">
    <link name="l">
      <include><uri>rel/thing</uri></include>
      <visual name="v"><geometry><mesh><uri>rel/mesh.dae</uri></mesh></geometry></visual>
    </link>
  </model>
</sdf>`),
	)

	doc, md, err := x.LoadFile(harness.ModelSDF("include_in_link"))
	require.NoError(t, err)
	assert.Empty(t, md.Includes)

	link := doc.FindElement("//link")
	require.NotNil(t, link)
	inc := link.SelectElement("include")
	require.NotNil(t, inc)
	assert.Equal(t, "rel/thing", inc.SelectElement("uri").Text())
	assert.Equal(t, harness.ModelDir("include_in_link")+"/rel/mesh.dae", link.FindElement("visual/geometry/mesh/uri").Text())
}

func TestRelativeURIs(t *testing.T) {
	x := newExpander(t)
	dir := harness.ModelDir("model_with_relative_uris")

	for _, name := range []string{"model_with_relative_uris", "model_that_includes_a_model_with_relative_paths"} {
		t.Run(name, func(t *testing.T) {
			doc, _, err := x.LoadFile(harness.ModelSDF(name))
			require.NoError(t, err)

			assert.Len(t, doc.FindElements("//uri"), 3)
			assert.Equal(t, dir+"/visual.dae", doc.FindElement("//visual//uri").Text())
			assert.Equal(t, "/usr/share/meshes/collision.dae", doc.FindElement("//collision//uri").Text())
			assert.Equal(t, "http://example.com/p", doc.FindElement("//plugin/uri").Text())
		})
	}
}

func TestModelURIs(t *testing.T) {
	x := newExpander(t)

	doc, _, err := x.LoadFile(harness.ModelSDF("model_with_model_uris"))
	require.NoError(t, err)

	assert.Equal(t, harness.ModelDir("simple_model")+"/visual.dae",
		doc.FindElement("//visual[@name='visual']//uri").Text())
	assert.Equal(t, harness.ModelDir("simple_model"),
		doc.FindElement("//visual[@name='directory']//uri").Text())
}

func TestIncludeByDirectory(t *testing.T) {
	x := newExpander(t)

	doc, md, err := x.LoadFile(harness.ModelSDF("include_by_directory"))
	require.NoError(t, err)

	root := doc.Root().SelectElement("model")
	assert.Equal(t, "from_directory", xmltree.Name(root.SelectElement("model")))
	assert.Equal(t, []string{"root::from_directory"}, md.Includes[harness.ModelSDF("simple_model")])
}

func TestNestedIncludeProvenance(t *testing.T) {
	x := newExpander(t)

	doc, md, err := x.LoadFile(harness.ModelSDF("nested_include"))
	require.NoError(t, err)

	assert.NotNil(t, doc.FindElement("//model[@name='outer']/model[@name='middle']/model[@name='from_directory']"))
	assert.Equal(t, map[string][]string{
		harness.ModelSDF("include_by_directory"): {"outer::middle"},
		harness.ModelSDF("simple_model"):         {"outer::middle::from_directory"},
	}, md.Includes)
}

func TestIncludesAtEachLevel(t *testing.T) {
	x := newExpander(t)

	_, md, err := x.ModelFromName("includes_at_each_level", sdfversion.Latest())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"w::child_of_world",
		"w::model::child_of_model",
		"w::model::model_in_model::child_of_model_in_model",
		"root_model::child_of_root_model",
		"root_model::model_in_root_model::child_of_model_in_root_model",
	}, md.SplicedAt(harness.ModelSDF("simple_model")))
}

func TestIncludeErrors(t *testing.T) {
	bad := func(name, body string) harness.Files {
		return harness.Model("/bad/"+name, "1.5", `<sdf version="1.5">`+body+`</sdf>`)
	}
	x := newExpander(t,
		harness.Cycle(),
		bad("no_uri", `<include><name>x</name></include>`),
		bad("two_uris", `<include><uri>model://simple_model</uri><uri>model://posed_model</uri></include>`),
		bad("explicit_file", `<include><uri>model://simple_model/model.sdf</uri></include>`),
		bad("no_such_dir", `<include><uri>does/not/exist</uri></include>`),
		bad("unknown_model", `<include><uri>model://unknown</uri></include>`),
		bad("two_models", `<include><uri>../two_models_target</uri></include>`),
		harness.Model("/bad/two_models_target", "1.5", `<sdf version="1.5"><model name="a"/><model name="b"/></sdf>`),
	)

	tests := []struct {
		path string
		code errors.ErrorCode
		msg  string
	}{
		{path: harness.ModelSDF("bad_include"), code: errors.ErrInvalidXML, msg: "unexpected element 'plugin'"},
		{path: harness.ModelSDF("cycle_a"), code: errors.ErrInvalidXML, msg: "include cycle"},
		{path: "/bad/no_uri/model.sdf", code: errors.ErrInvalidXML, msg: "no uri element"},
		{path: "/bad/two_uris/model.sdf", code: errors.ErrInvalidXML, msg: "more than one uri"},
		{path: "/bad/explicit_file/model.sdf", code: errors.ErrInvalidXML, msg: "explicit file"},
		{path: "/bad/no_such_dir/model.sdf", code: errors.ErrNoSuchModel, msg: "neither a model:// URI nor an existing directory"},
		{path: "/bad/unknown_model/model.sdf", code: errors.ErrNoSuchModel, msg: "cannot find model unknown"},
		{path: "/bad/two_models/model.sdf", code: errors.ErrInvalidXML, msg: "exactly one model"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, _, err := x.LoadFile(tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.code)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Contains(t, err.Error(), "while loading "+tt.path)
		})
	}
}

func TestModelFromNameVersions(t *testing.T) {
	x := newExpander(t)

	doc, _, err := x.ModelFromName("versioned_model", sdfversion.Latest())
	require.NoError(t, err)
	assert.Equal(t, []string{"versioned model 1.5"}, topModels(doc))

	doc, _, err = x.ModelFromName("versioned_model", sdfversion.Max(130))
	require.NoError(t, err)
	assert.Equal(t, []string{"versioned model 1.3"}, topModels(doc))

	_, _, err = x.ModelFromName("versioned_model", sdfversion.Max(100))
	assert.ErrorIs(t, err, errors.ErrUnavailableSDFVersionInModel)
}

func TestModelFromNameReturnsCopies(t *testing.T) {
	x := newExpander(t)

	first, md, err := x.ModelFromName("simple_model", sdfversion.Latest())
	require.NoError(t, err)
	second, _, err := x.ModelFromName("simple_model", sdfversion.Latest())
	require.NoError(t, err)

	assert.NotSame(t, first.Root(), second.Root())
	assert.Equal(t, xmltree.String(first.Root()), xmltree.String(second.Root()))

	first.Root().SelectElement("model").CreateAttr("name", "mutated")
	md.Includes["x"] = []string{"y"}

	third, md3, err := x.ModelFromName("simple_model", sdfversion.Latest())
	require.NoError(t, err)
	assert.Equal(t, []string{"simple test model"}, topModels(third))
	assert.Equal(t, []string{"simple test model"}, topModels(second))
	assert.NotContains(t, md3.Includes, "x")
}

func TestModelFromDir(t *testing.T) {
	x := newExpander(t)

	doc, md, err := x.ModelFromDir(harness.ModelDir("model_without_version"), sdfversion.Latest())
	require.NoError(t, err)
	assert.Equal(t, []string{"model without version"}, topModels(doc))
	assert.Equal(t, harness.ModelSDF("model_without_version"), md.Path)
}

func TestModels(t *testing.T) {
	x := newExpander(t)

	all, err := x.Models(sdfversion.Latest())
	require.NoError(t, err)
	assert.Len(t, all, 14)

	old, err := x.Models(sdfversion.Max(130))
	require.NoError(t, err)
	require.Len(t, old, 2)
	byName := map[string]Model{}
	for _, m := range old {
		byName[m.Name] = m
	}
	assert.Equal(t, []string{"versioned model 1.3"}, topModels(byName["versioned_model"].Doc))
	assert.Contains(t, byName, "model_without_version")
}

func TestModelsPropagatesFailures(t *testing.T) {
	x := newExpander(t, harness.Cycle())

	_, err := x.Models(sdfversion.Latest())
	assert.ErrorIs(t, err, errors.ErrInvalidXML)
}
