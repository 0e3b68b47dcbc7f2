// Package runtime wires a loaded configuration to the git working copy, the
// GitHub API and the npm registry for a single trainline invocation.
//
// Actions receive a *Context, which is also a context.Context, and tests can
// inject one through WithContext.
package runtime
