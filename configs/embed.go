// Package configs provides embedded configuration templates for codeseeker.
//
// How Configuration Templates Work:
//
// Templates are embedded at build time using Go's //go:embed directive.
// This ensures they are available in ALL distributions:
//   - Source builds (go install)
//   - Binary releases
//   - Homebrew installations
//
// The templates are used by:
//   - cmd/codeseeker/cmd/config.go → creates user config at ~/.config/codeseeker/config.yaml
//   - internal/config does not use them; Load only reads an existing
//     <project>/.codeseeker/config.yaml
//
// Template files:
//   - project-config.example.yaml: Project-specific settings (paths, search weights)
//   - user-config.example.yaml: Machine-specific settings (Ollama host, data dir)
//
// Configuration Hierarchy (see internal/config/config.go Load()):
//   1. Hardcoded defaults (internal/config/config.go NewConfig())
//   2. User config (~/.config/codeseeker/config.yaml)
//   3. Project config (.codeseeker/config.yaml)
//   4. Environment variables (CODESEEKER_*)
//
// To modify templates, edit the .yaml files in this directory and rebuild.
// Changes will be embedded in the next build.
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level configuration.
// Created by: `codeseeker config init` at ~/.config/codeseeker/config.yaml
// Contains: Machine-specific settings like thermal management, Ollama host, MLX endpoint.
// Use case: Settings that apply to all projects on this machine.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for project-level configuration.
// Created by: `codeseeker init` at .codeseeker.yaml in the project root
// Contains: Project-specific settings like paths.exclude, search weights, submodules.
// Use case: Settings that are version-controlled with the project.
//
// Important: The template includes commented examples showing how to exclude
// project management directories (like .aman-pm/) to prevent search pollution.
// See: configs/project-config.example.yaml for the full template.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
