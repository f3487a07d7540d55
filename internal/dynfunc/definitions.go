package dynfunc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadDefinitions reads a YAML file of name -> template definitions. A missing
// file is not an error; callers define functions at runtime too.
func LoadDefinitions(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read function definitions: %w", err)
	}
	var defs map[string]string
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse function definitions %s: %w", path, err)
	}
	return defs, nil
}
