// Package config loads the trainline project configuration.
//
// It handles:
//   - Reading .trainline.yaml with environment and flag overrides
//   - Validating required sections before any git or network I/O
//   - Rewriting the dependency update bot configuration on branch-off
package config
