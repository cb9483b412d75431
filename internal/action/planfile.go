package action

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// PlanFile is the on-disk form of a saved plan. Actions stay loosely typed
// so a hand-edited file goes through Normalize like advisor output does.
type PlanFile struct {
	Explanation string `yaml:"explanation,omitempty"`
	Actions     []any  `yaml:"actions"`
}

// ReadPlan decodes a YAML (or JSON) plan file and returns its candidates.
func ReadPlan(r io.Reader) ([]any, error) {
	var pf PlanFile
	if err := yaml.NewDecoder(r).Decode(&pf); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	return pf.Actions, nil
}

// WritePlan encodes plan as YAML.
func WritePlan(w io.Writer, explanation string, plan []Action) error {
	encoded := Encode(plan)
	pf := PlanFile{Explanation: explanation, Actions: make([]any, len(encoded))}
	for i, m := range encoded {
		pf.Actions[i] = m
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(pf); err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	return enc.Close()
}
