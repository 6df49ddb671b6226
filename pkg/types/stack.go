// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// BackendTech identifies the server-side stack of a generated project.
type BackendTech string

const (
	BackendJava   BackendTech = "java"
	BackendCSharp BackendTech = "csharp"
	BackendPython BackendTech = "python"
)

// Label returns the human-readable stack name used in generated READMEs.
func (b BackendTech) Label() string {
	switch b {
	case BackendJava:
		return "Java (Spring Boot)"
	case BackendCSharp:
		return "C# (.NET 8)"
	case BackendPython:
		return "Python (Django)"
	}
	return string(b)
}

// FrontendTech identifies the client-side stack of a generated project.
type FrontendTech string

const (
	FrontendReact   FrontendTech = "react"
	FrontendVue     FrontendTech = "vue"
	FrontendAngular FrontendTech = "angular"
)

// Label returns the human-readable frontend name.
func (f FrontendTech) Label() string {
	switch f {
	case FrontendReact:
		return "React"
	case FrontendVue:
		return "Vue.js"
	case FrontendAngular:
		return "Angular"
	}
	return string(f)
}

// DatabaseTech identifies the database a generated project connects to.
type DatabaseTech string

const (
	DatabasePostgres DatabaseTech = "postgres"
)

// Backends lists every supported backend in display order.
var Backends = []BackendTech{BackendJava, BackendCSharp, BackendPython}

// Frontends lists every supported frontend in display order.
var Frontends = []FrontendTech{FrontendReact, FrontendVue, FrontendAngular}

// Databases lists every supported database.
var Databases = []DatabaseTech{DatabasePostgres}

// TechStack selects the templates rendered for a project.
type TechStack struct {
	Backend   BackendTech  `json:"backend" yaml:"backend" mapstructure:"backend"`
	Frontend  FrontendTech `json:"frontend" yaml:"frontend" mapstructure:"frontend"`
	Database  DatabaseTech `json:"database" yaml:"database" mapstructure:"database"`
	UseDocker bool         `json:"use_docker" yaml:"use_docker" mapstructure:"use_docker"`
}

// String formats the stack as "backend/frontend/database[+docker]".
func (s TechStack) String() string {
	out := string(s.Backend) + "/" + string(s.Frontend) + "/" + string(s.Database)
	if s.UseDocker {
		out += "+docker"
	}
	return out
}
