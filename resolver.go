package sdf

import (
	"github.com/jacoelho/sdf/internal/include"
	"github.com/jacoelho/sdf/internal/modelpath"
)

// EnvModelPath names the environment variable listing model directories.
const EnvModelPath = modelpath.EnvModelPath

// Metadata records the file a document was loaded from and where each
// included document was spliced.
type Metadata = include.Metadata

// ModelDir is a model directory found in the search path.
type ModelDir = modelpath.ModelDir

// DefaultModelPath returns the search path built from GAZEBO_MODEL_PATH
// followed by ~/.gazebo/models.
func DefaultModelPath() []string {
	return modelpath.DefaultSearchPath()
}
