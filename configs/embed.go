// Package configs provides embedded configuration templates for
// convosearch.
//
// Templates are embedded at build time with //go:embed so they ship in
// every distribution. The project template is written by `convosearch init`
// as .convosearch.yaml in the working directory; see
// internal/config.Load for the resolution order (defaults, project file,
// CONVOSEARCH_* environment variables).
package configs

import _ "embed"

// ProjectConfigTemplate is the template for project-level configuration,
// created by `convosearch init` at .convosearch.yaml.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
