package harness

// ModelsDir is the search path directory used by Models.
const ModelsDir = "/models"

// ModelDir returns the directory of a fixture model.
func ModelDir(name string) string {
	return ModelsDir + "/" + name
}

// ModelSDF returns the path of the model.sdf of a fixture model.
func ModelSDF(name string) string {
	return ModelDir(name) + "/model.sdf"
}

// Models returns the standard fixture set rooted at ModelsDir. Every model
// directory in it loads without error; Cycle holds the failing ones.
func Models() Files {
	files := Files{
		ModelsDir + "/not_sdf.xml": `<robot name="not sdf"/>`,

		ModelDir("versioned_model") + "/model.config": Config("versioned_model",
			ConfigEntry{Version: "1.3", File: "model-1.3.sdf"},
			ConfigEntry{Version: "1.5", File: "model-1.5.sdf"},
		),
		ModelDir("versioned_model") + "/model-1.3.sdf": `<sdf version="1.3"><model name="versioned model 1.3"><link name="link"/></model></sdf>`,
		ModelDir("versioned_model") + "/model-1.5.sdf": `<sdf version="1.5"><model name="versioned model 1.5"><link name="link"/></model></sdf>`,

		ModelDir("model_without_version") + "/model.config": Config("model_without_version",
			ConfigEntry{File: "model.sdf"},
		),
		ModelSDF("model_without_version"): `<sdf><model name="model without version"><link name="link"/></model></sdf>`,
	}

	return files.Merge(
		Model(ModelDir("simple_model"), "1.5", `<?xml version="1.0"?>
<sdf version="1.5">
  <model name="simple test model">
    <link name="link">
      <visual name="visual">
        <geometry><mesh><uri>visual.dae</uri></mesh></geometry>
      </visual>
    </link>
  </model>
</sdf>`),

		Model(ModelDir("posed_model"), "1.5", `<sdf version="1.5">
  <model name="posed model">
    <pose>1 2 3 0 0 0</pose>
    <link name="link"/>
  </model>
</sdf>`),

		Model(ModelDir("model_with_includes"), "1.5", `<sdf version="1.5">
  <include><uri>model://simple_model</uri></include>
  <include><uri>model://simple_model</uri><name>first model</name></include>
  <include><uri>model://simple_model</uri><name>second model</name></include>
</sdf>`),

		Model(ModelDir("model_with_new_tags_in_include"), "1.5", `<sdf version="1.5">
  <include>
    <uri>model://simple_model</uri>
    <pose>1 0 3 0 5 0</pose>
    <static>true</static>
  </include>
</sdf>`),

		Model(ModelDir("model_with_overriding_tags_in_include"), "1.5", `<sdf version="1.5">
  <include>
    <uri>model://posed_model</uri>
    <pose>0 0 0 0 0 0</pose>
  </include>
</sdf>`),

		Model(ModelDir("model_with_relative_uris"), "1.5", `<sdf version="1.5">
  <model name="model with relative uris">
    <link name="link">
      <visual name="visual">
        <geometry><mesh><uri>visual.dae</uri></mesh></geometry>
      </visual>
      <collision name="collision">
        <geometry><mesh><uri>/usr/share/meshes/collision.dae</uri></mesh></geometry>
      </collision>
      <sensor name="camera" type="camera">
        <plugin name="p" filename="libp.so"><uri>http://example.com/p</uri></plugin>
      </sensor>
    </link>
  </model>
</sdf>`),

		Model(ModelDir("model_that_includes_a_model_with_relative_paths"), "1.5", `<sdf version="1.5">
  <include><uri>model://model_with_relative_uris</uri></include>
</sdf>`),

		Model(ModelDir("model_with_model_uris"), "1.5", `<sdf version="1.5">
  <model name="model with model uris">
    <link name="link">
      <visual name="visual">
        <geometry><mesh><uri>model://simple_model/visual.dae</uri></mesh></geometry>
      </visual>
      <visual name="directory">
        <geometry><mesh><uri>model://simple_model</uri></mesh></geometry>
      </visual>
    </link>
  </model>
</sdf>`),

		Model(ModelDir("include_by_directory"), "1.5", `<sdf version="1.5">
  <model name="root">
    <include><uri>../simple_model</uri><name>from_directory</name></include>
  </model>
</sdf>`),

		Model(ModelDir("includes_at_each_level"), "1.5", `<sdf version="1.5">
  <world name="w">
    <include><uri>model://simple_model</uri><name>child_of_world</name></include>
    <model name="model">
      <include><uri>model://simple_model</uri><name>child_of_model</name></include>
      <model name="model_in_model">
        <include><uri>model://simple_model</uri><name>child_of_model_in_model</name></include>
      </model>
    </model>
  </world>
  <model name="root_model">
    <include><uri>model://simple_model</uri><name>child_of_root_model</name></include>
    <model name="model_in_root_model">
      <include><uri>model://simple_model</uri><name>child_of_model_in_root_model</name></include>
    </model>
  </model>
</sdf>`),

		Model(ModelDir("nested_include"), "1.5", `<sdf version="1.5">
  <model name="outer">
    <include><uri>model://include_by_directory</uri><name>middle</name></include>
  </model>
</sdf>`),

		Model(ModelDir("nested_model"), "1.5", NestedModelSDF),
	)
}

// NestedModelSDF is a root model r holding a posed submodel s.
const NestedModelSDF = `<sdf version="1.5">
  <model name="r">
    <link name="root_link"/>
    <model name="s">
      <pose>1 0 3 0 0 0.1</pose>
      <link name="l">
        <pose>1 0 1 0 0 1</pose>
      </link>
      <link name="l2"/>
      <frame name="f"><pose>1 1 1 0 0 0</pose></frame>
      <joint name="j" type="revolute">
        <pose>0 0 1 0 0 0</pose>
        <parent>l</parent>
        <child>l2</child>
        <axis><xyz>1 0 0</xyz></axis>
      </joint>
      <joint name="fixed_in_parent" type="revolute">
        <parent>l</parent>
        <child>l2</child>
        <axis><xyz>1 0 0</xyz><use_parent_model_frame>true</use_parent_model_frame></axis>
      </joint>
    </model>
    <joint name="attach" type="fixed">
      <parent>root_link</parent>
      <child>s::l</child>
    </joint>
  </model>
</sdf>`

// Cycle returns two models including each other and a model with an invalid
// include block.
func Cycle() Files {
	return Files{}.Merge(
		Model(ModelDir("cycle_a"), "1.5", `<sdf version="1.5">
  <include><uri>model://cycle_b</uri></include>
</sdf>`),
		Model(ModelDir("cycle_b"), "1.5", `<sdf version="1.5">
  <model name="b">
    <include><uri>model://cycle_a</uri></include>
  </model>
</sdf>`),
		Model(ModelDir("bad_include"), "1.5", `<sdf version="1.5">
  <include><uri>model://simple_model</uri><plugin name="x"/></include>
</sdf>`),
	)
}
