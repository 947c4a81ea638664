package process

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Load reads a process definition from a YAML or JSON file and validates it.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading process definition: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("process definition %s: %w", path, err)
	}
	logrus.Debugf("loaded process definition %s: %d nodes, %d edges, %d element types",
		path, len(def.Nodes), len(def.Edges), len(def.Elements))
	return def, nil
}

// Parse decodes and validates a process definition. JSON input is accepted
// since it is a subset of YAML. Unknown keys are ignored so editor exports
// carrying extra presentation fields still load.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&def); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}
