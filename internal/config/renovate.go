package config

import (
	"encoding/json"
	"fmt"
)

// RenovateConfigPath is the dependency update bot configuration file
const RenovateConfigPath = "renovate.json"

// UpdateRenovateConfig points the dependency update bot at the main branch
// and a newly branched-off version branch. Labels that target patch
// releases are switched to target the release candidate instead. The
// returned bool is false when the file does not have the expected shape
// and was left unchanged.
func UpdateRenovateConfig(content []byte, mainBranch, newBranch string) ([]byte, bool, error) {
	var doc map[string]any
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to parse %s: %w", RenovateConfigPath, err)
	}

	patterns, ok := doc["baseBranchPatterns"].([]any)
	if !ok || len(patterns) != 2 {
		return content, false, nil
	}
	doc["baseBranchPatterns"] = []any{mainBranch, newBranch}

	if rules, ok := doc["packageRules"].([]any); ok {
		for _, rule := range rules {
			ruleMap, ok := rule.(map[string]any)
			if !ok {
				continue
			}
			labels, ok := ruleMap["addLabels"].([]any)
			if !ok {
				continue
			}
			for i, label := range labels {
				if label == "target: patch" {
					labels[i] = "target: rc"
				}
			}
		}
	}

	updated, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, false, err
	}
	return append(updated, '\n'), true, nil
}
