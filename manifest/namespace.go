package manifest

import (
	"fmt"
	"strings"
)

// ToPascalCase converts a string to PascalCase.
// "my-app" -> "MyApp", "models" -> "Models", "myApp" -> "MyApp"
func ToPascalCase(s string) string {
	var words []string
	current := ""
	for i, r := range s {
		if r == '-' || r == '_' {
			if current != "" {
				words = append(words, current)
				current = ""
			}
			continue
		}
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := rune(s[i-1])
			if prev >= 'a' && prev <= 'z' {
				words = append(words, current)
				current = ""
			}
		}
		current += string(r)
	}
	if current != "" {
		words = append(words, current)
	}

	var result string
	for _, w := range words {
		if w == "" {
			continue
		}
		result += strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return result
}

// reservedNamespaces lists value-kind and application-protocol names
// that a dependency's namespace root cannot shadow: the bytecode
// module's builtin Value kinds (spec §4.A) and the Elm-architecture
// entry point names every App module declares (spec §4.F). A dependency
// namespaced "Record" or "Update" would be indistinguishable from these
// in generated diagnostics and disassembly output.
var reservedNamespaces = map[string]bool{
	"Unit":     true,
	"Bool":     true,
	"Int":      true,
	"Float":    true,
	"String":   true,
	"None":     true,
	"Some":     true,
	"Ok":       true,
	"Err":      true,
	"Record":   true,
	"Enum":     true,
	"List":     true,
	"Map":      true,
	"ActorId":  true,
	"FnRef":    true,
	"Init":     true,
	"Update":   true,
	"View":     true,
	"Policies": true,
}

// IsReservedNamespace reports whether name is a builtin value-kind or
// app-protocol name that must not be used as the root segment of a
// dependency namespace. Only the root segment is checked:
// "ThirdParty::Record" is fine because the root is "ThirdParty".
func IsReservedNamespace(name string) bool {
	root := name
	if idx := strings.Index(name, "::"); idx >= 0 {
		root = name[:idx]
	}
	return reservedNamespaces[root]
}

// resolveNamespace determines the effective namespace for a dependency using
// the three-level resolution order:
//  1. Consumer override (dep.Namespace from TOML)
//  2. Producer manifest (depManifest.Project.Namespace)
//  3. PascalCase fallback (ToPascalCase(name))
func resolveNamespace(name string, dep Dependency, depManifest *Manifest) (string, error) {
	var ns string
	switch {
	case dep.Namespace != "":
		ns = dep.Namespace
	case depManifest != nil && depManifest.Project.Namespace != "":
		ns = depManifest.Project.Namespace
	default:
		ns = ToPascalCase(name)
	}

	if IsReservedNamespace(ns) {
		return "", fmt.Errorf("dependency %q resolves to reserved namespace %q (a builtin value kind or app entry-point name); add namespace = \"...\" override in [dependencies]", name, ns)
	}

	return ns, nil
}
