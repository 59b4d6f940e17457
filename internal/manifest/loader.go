// Package manifest loads YAML target declarations into a registry.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tyemirov/taskmill/internal/registry"
)

const (
	manifestReadErrorTemplateConstant   = "unable to read manifest %s: %w"
	manifestDecodeErrorTemplateConstant = "unable to decode manifest: %w"
	declarationErrorTemplateConstant    = "manifest target #%d (%s): %s"
	unnamedTargetPlaceholderConstant    = "unnamed"
	missingTargetNameReasonConstant     = "name is required"
	missingCommandReasonConstant        = "command is required"
	missingParameterNameReasonConstant  = "parameter name is required"
	emptyManifestMessageConstant        = "manifest declares no targets"
)

// ErrNoTargets indicates a manifest with an empty or absent targets list.
var ErrNoTargets = errors.New(emptyManifestMessageConstant)

// TargetDeclarationError indicates a structurally invalid target declaration.
type TargetDeclarationError struct {
	Position   int
	TargetName string
	Reason     string
}

// Error implements the error interface.
func (errorDetails TargetDeclarationError) Error() string {
	targetName := errorDetails.TargetName
	if len(targetName) == 0 {
		targetName = unnamedTargetPlaceholderConstant
	}
	return fmt.Sprintf(declarationErrorTemplateConstant, errorDetails.Position, targetName, errorDetails.Reason)
}

// Document mirrors the YAML manifest layout.
type Document struct {
	Default string              `yaml:"default"`
	Targets []TargetDeclaration `yaml:"targets"`
}

// TargetDeclaration mirrors one target entry of the manifest.
type TargetDeclaration struct {
	Name         string                 `yaml:"name"`
	Description  string                 `yaml:"description"`
	Directory    string                 `yaml:"directory"`
	Dependencies []string               `yaml:"dependencies"`
	Parameters   []ParameterDeclaration `yaml:"parameters"`
	Command      string                 `yaml:"command"`
}

// ParameterDeclaration mirrors one parameter entry of a target declaration.
type ParameterDeclaration struct {
	Name    string  `yaml:"name"`
	Default *string `yaml:"default"`
}

// Load reads and parses the manifest file at the provided path.
func Load(manifestPath string) (*registry.Registry, error) {
	content, readError := os.ReadFile(manifestPath)
	if readError != nil {
		return nil, fmt.Errorf(manifestReadErrorTemplateConstant, manifestPath, readError)
	}
	return Parse(content)
}

// Parse decodes manifest content and registers every declared target. Unknown
// manifest fields are rejected so typos surface before anything launches.
func Parse(content []byte) (*registry.Registry, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	var document Document
	if decodeError := decoder.Decode(&document); decodeError != nil && !errors.Is(decodeError, io.EOF) {
		return nil, fmt.Errorf(manifestDecodeErrorTemplateConstant, decodeError)
	}
	if len(document.Targets) == 0 {
		return nil, ErrNoTargets
	}

	builder := registry.NewBuilder()
	for declarationIndex := range document.Targets {
		declaration := document.Targets[declarationIndex]
		target, conversionError := convertDeclaration(declarationIndex, declaration)
		if conversionError != nil {
			return nil, conversionError
		}
		if registerError := builder.Register(target); registerError != nil {
			return nil, registerError
		}
	}
	builder.SetDefaultTarget(document.Default)
	return builder.Build()
}

func convertDeclaration(declarationIndex int, declaration TargetDeclaration) (registry.Target, error) {
	trimmedName := strings.TrimSpace(declaration.Name)
	if len(trimmedName) == 0 {
		return registry.Target{}, TargetDeclarationError{
			Position: declarationIndex,
			Reason:   missingTargetNameReasonConstant,
		}
	}
	if len(strings.TrimSpace(declaration.Command)) == 0 {
		return registry.Target{}, TargetDeclarationError{
			Position:   declarationIndex,
			TargetName: trimmedName,
			Reason:     missingCommandReasonConstant,
		}
	}

	parameters := make([]registry.Parameter, 0, len(declaration.Parameters))
	for parameterIndex := range declaration.Parameters {
		parameterDeclaration := declaration.Parameters[parameterIndex]
		parameterName := strings.TrimSpace(parameterDeclaration.Name)
		if len(parameterName) == 0 {
			return registry.Target{}, TargetDeclarationError{
				Position:   declarationIndex,
				TargetName: trimmedName,
				Reason:     missingParameterNameReasonConstant,
			}
		}
		parameter := registry.Parameter{Name: parameterName}
		if parameterDeclaration.Default != nil {
			parameter.DefaultValue = *parameterDeclaration.Default
			parameter.HasDefault = true
		}
		parameters = append(parameters, parameter)
	}

	dependencies := make([]string, 0, len(declaration.Dependencies))
	for _, dependencyName := range declaration.Dependencies {
		trimmedDependency := strings.TrimSpace(dependencyName)
		if len(trimmedDependency) == 0 {
			continue
		}
		dependencies = append(dependencies, trimmedDependency)
	}

	return registry.Target{
		Name:             trimmedName,
		Description:      strings.TrimSpace(declaration.Description),
		Dependencies:     dependencies,
		Parameters:       parameters,
		CommandTemplate:  strings.TrimSpace(declaration.Command),
		WorkingDirectory: strings.TrimSpace(declaration.Directory),
	}, nil
}
