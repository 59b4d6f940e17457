// Package binder materializes command lines from target templates and parameter values.
package binder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tyemirov/taskmill/internal/registry"
)

const (
	missingParameterErrorTemplateConstant = "target %q parameter %q has no override and no default"
	unknownParameterErrorTemplateConstant = "target %q command references undeclared parameter %q"
	placeholderPatternConstant            = `\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`
)

var placeholderExpression = regexp.MustCompile(placeholderPatternConstant)

// MissingParameterError indicates a declared parameter resolved to no value.
type MissingParameterError struct {
	TargetName    string
	ParameterName string
}

// Error implements the error interface.
func (errorDetails MissingParameterError) Error() string {
	return fmt.Sprintf(missingParameterErrorTemplateConstant, errorDetails.TargetName, errorDetails.ParameterName)
}

// UnknownParameterError indicates a command template references a parameter the
// target never declared.
type UnknownParameterError struct {
	TargetName    string
	ParameterName string
}

// Error implements the error interface.
func (errorDetails UnknownParameterError) Error() string {
	return fmt.Sprintf(unknownParameterErrorTemplateConstant, errorDetails.TargetName, errorDetails.ParameterName)
}

// Bind resolves the target's declared parameters against caller overrides and
// static defaults, then substitutes the values into the command template.
// Parameters resolve in declaration order; an override beats a default; a
// parameter with neither fails with MissingParameterError. Override keys that
// name no declared parameter are ignored.
func Bind(target registry.Target, overrides map[string]string) (string, error) {
	resolvedValues := make(map[string]string, len(target.Parameters))
	for parameterIndex := range target.Parameters {
		parameter := target.Parameters[parameterIndex]
		if overrideValue, overridden := overrides[parameter.Name]; overridden {
			resolvedValues[parameter.Name] = overrideValue
			continue
		}
		if parameter.HasDefault {
			resolvedValues[parameter.Name] = parameter.DefaultValue
			continue
		}
		return "", MissingParameterError{TargetName: target.Name, ParameterName: parameter.Name}
	}

	return substitute(target, resolvedValues)
}

func substitute(target registry.Target, resolvedValues map[string]string) (string, error) {
	var resolvedCommand strings.Builder
	template := target.CommandTemplate
	lastMatchEnd := 0

	for _, matchIndexes := range placeholderExpression.FindAllStringSubmatchIndex(template, -1) {
		placeholderName := template[matchIndexes[2]:matchIndexes[3]]
		placeholderValue, declared := resolvedValues[placeholderName]
		if !declared {
			return "", UnknownParameterError{TargetName: target.Name, ParameterName: placeholderName}
		}
		resolvedCommand.WriteString(template[lastMatchEnd:matchIndexes[0]])
		resolvedCommand.WriteString(placeholderValue)
		lastMatchEnd = matchIndexes[1]
	}
	resolvedCommand.WriteString(template[lastMatchEnd:])

	return resolvedCommand.String(), nil
}
