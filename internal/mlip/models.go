package mlip

import (
	"fmt"
	"sort"
	"time"

	"mlipens/internal/calc"
	"mlipens/pkg/types"
)

// The four ensembled potentials. MACE, EqV2 and MatterSim consume the atoms
// form; CHGNet consumes the lattice form.
func init() {
	Register("MACE", func(params map[string]any) (*Adapter, error) {
		return newSubprocessModel("MACE", types.FormatAtoms, "mace-runner", params)
	})
	Register("EqV2", func(params map[string]any) (*Adapter, error) {
		return newSubprocessModel("EqV2", types.FormatAtoms, "eqv2-runner", params)
	})
	Register("CHGNET", func(params map[string]any) (*Adapter, error) {
		return newSubprocessModel("CHGNET", types.FormatLattice, "chgnet-runner", params)
	})
	Register("MatterSim", func(params map[string]any) (*Adapter, error) {
		return newSubprocessModel("MatterSim", types.FormatAtoms, "mattersim-runner", params)
	})
}

// params consumed by the adapter layer itself; everything else is passed
// through to the runner as flags, unrecognized keys included.
var reservedParams = map[string]bool{
	"runner":            true,
	"bias":              true,
	"start_timeout_sec": true,
}

func newSubprocessModel(name string, format types.Format, defaultRunner string, params map[string]any) (*Adapter, error) {
	if stringParam(params, "runner", "") == "stub" {
		return NewAdapter(name, format, &calc.Stub{Bias: floatParam(params, "bias", 0)}), nil
	}
	command := append(runnerCommand(params, defaultRunner), paramFlags(params)...)
	sub, err := calc.NewSubprocess(calc.SubprocessConfig{
		Command:      command,
		StartTimeout: time.Duration(floatParam(params, "start_timeout_sec", 0) * float64(time.Second)),
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return NewAdapter(name, format, sub), nil
}

// runnerCommand resolves the runner argv: the "runner" param (string or
// string list) when present, otherwise the model's default runner binary.
func runnerCommand(params map[string]any, defaultRunner string) []string {
	switch v := params["runner"].(type) {
	case string:
		if v != "" {
			return []string{v}
		}
	case []any:
		argv := make([]string, 0, len(v))
		for _, item := range v {
			argv = append(argv, fmt.Sprint(item))
		}
		if len(argv) > 0 {
			return argv
		}
	case []string:
		if len(v) > 0 {
			return append([]string(nil), v...)
		}
	}
	return []string{defaultRunner}
}

// paramFlags turns every non-reserved param into a --key=value flag in
// sorted key order, so model-specific and unrecognized params alike reach
// the runner unchanged.
func paramFlags(params map[string]any) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if reservedParams[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	flags := make([]string, 0, len(keys))
	for _, k := range keys {
		flags = append(flags, fmt.Sprintf("--%s=%v", k, params[k]))
	}
	return flags
}

func stringParam(params map[string]any, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

func floatParam(params map[string]any, key string, def float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}
