package bench

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Question is one scripted probe with its expected answer substring. Either
// Prompt (free text sent to the backend) or Function (a dynamic function name
// plus Params) is set.
type Question struct {
	Prompt   string `yaml:"prompt,omitempty"`
	Function string `yaml:"function,omitempty"`
	Params   []any  `yaml:"params,omitempty"`
	Expected string `yaml:"expected"`
}

// questionFile is the on-disk question set shape.
type questionFile struct {
	Name      string     `yaml:"name"`
	Questions []Question `yaml:"questions"`
}

// LoadQuestions reads a YAML question set from path.
func LoadQuestions(path string) (string, []Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read question set: %w", err)
	}
	var qf questionFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return "", nil, fmt.Errorf("parse question set %s: %w", path, err)
	}
	if len(qf.Questions) == 0 {
		return "", nil, fmt.Errorf("question set %s is empty", path)
	}
	for i, q := range qf.Questions {
		if q.Prompt == "" && q.Function == "" {
			return "", nil, fmt.Errorf("question set %s: entry %d has neither prompt nor function", path, i)
		}
	}
	return qf.Name, qf.Questions, nil
}
