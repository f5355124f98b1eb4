package config

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Paths use the same keys as the config file, for example:
//
//	log_level
//	logging.format
//	viewport.w
//	storage.backend
//	theme.name
//	preferences.max_restore_windows
//	autosave_interval
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

// lookupValue walks the YAML rendering of cfg so every key a file can set is
// also explainable.
func lookupValue(cfg *Config, path string) (any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}

	var cur any = tree
	parts := strings.Split(path, ".")
	for i, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s is not a section", strings.Join(parts[:i], "."))
		}
		next, ok := m[part]
		if !ok {
			if _, known := knownOptional[strings.Join(parts[:i+1], ".")]; known {
				return nil, nil
			}
			return nil, fmt.Errorf("unknown config path %q (valid keys here: %s)", path, strings.Join(sortedKeys(m), ", "))
		}
		cur = next
	}
	return cur, nil
}

// knownOptional lists keys omitted from the YAML rendering when empty.
var knownOptional = map[string]struct{}{
	"logging.file":        {},
	"logging.max_size_mb": {},
	"logging.max_files":   {},
	"logging.format":      {},
	"storage.path":        {},
	"open_url_command":    {},
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
