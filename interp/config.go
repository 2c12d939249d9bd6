package interp

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// WhitelistOverlay is additive-only configuration layered on top of
// defaultAllowedModules: an operator can widen which modules/functions
// are admitted (e.g. adding a project-specific module to an
// allowlist), but the overlay can never narrow or remove a baked-in
// entry.
type WhitelistOverlay struct {
	Modules map[string]overlayModule `toml:"modules"`
}

type overlayModule struct {
	Policy     string   `toml:"policy"` // "all_functions", "denylist", "allowlist", "single"
	Functions  []string `toml:"functions"`
	SingleName string   `toml:"single_name"`
	SingleArity int     `toml:"single_arity"`
}

// LoadWhitelistOverlay reads a TOML file describing additional
// ALLOWED_MODULES entries and converts it into the internal
// modulePolicy representation consumed by newWhitelistValidator.
func LoadWhitelistOverlay(path string) (map[string]modulePolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading whitelist overlay: %w", err)
	}
	var raw WhitelistOverlay
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing whitelist overlay: %w", err)
	}
	out := map[string]modulePolicy{}
	for name, m := range raw.Modules {
		policy := modulePolicy{}
		switch m.Policy {
		case "all_functions":
			policy.kind = policyAllFunctions
		case "denylist":
			policy.kind = policyDenylist
			policy.set = toFunctionSet(m.Functions)
		case "allowlist":
			policy.kind = policyAllowlist
			policy.set = toFunctionSet(m.Functions)
		case "single":
			policy.kind = policySingle
			policy.singleName = m.SingleName
			policy.singleArity = m.SingleArity
		default:
			return nil, fmt.Errorf("whitelist overlay: module %s has unknown policy %q", name, m.Policy)
		}
		out[name] = policy
	}
	return out, nil
}

func toFunctionSet(entries []string) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		set[e] = true
	}
	return set
}
