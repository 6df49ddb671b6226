// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package variables

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scaffold-engine/pkg/types"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "shop"},
		{name: "dashes and underscores", input: "My-Shop_2"},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "too short", input: "a", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 101), wantErr: true},
		{name: "spaces", input: "my shop", wantErr: true},
		{name: "dots", input: "my.shop", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseStack(t *testing.T) {
	stack, err := ParseStack("PYTHON", "Vue", "", true)
	require.NoError(t, err)
	assert.Equal(t, types.TechStack{
		Backend:   types.BackendPython,
		Frontend:  types.FrontendVue,
		Database:  types.DatabasePostgres,
		UseDocker: true,
	}, stack)

	_, err = ParseStack("cobol", "react", "", false)
	assert.ErrorContains(t, err, "unsupported backend")

	_, err = ParseStack("java", "svelte", "", false)
	assert.ErrorContains(t, err, "unsupported frontend")

	_, err = ParseStack("java", "react", "oracle", false)
	assert.ErrorContains(t, err, "unsupported database")
}

func TestDerive(t *testing.T) {
	stack := types.TechStack{
		Backend:   types.BackendPython,
		Frontend:  types.FrontendReact,
		Database:  types.DatabasePostgres,
		UseDocker: true,
	}

	vars, err := Derive("My-Shop_API", stack)
	require.NoError(t, err)

	want := map[string]string{
		"PROJECT_NAME":            "My-Shop_API",
		"PROJECT_NAME_LOWER":      "my-shop_api",
		"PROJECT_NAME_SAFE":       "myshopapi",
		"PROJECT_NAME_UNDERSCORE": "my_shop_api",
		"PROJECT_NAME_DASH":       "my-shop-api",
		"PACKAGE_NAME":            "myshopapi",
		"PACKAGE_PATH":            "com/myshopapi",
		"BACKEND_TECH":            "python",
		"BACKEND_LABEL":           "Python (Django)",
		"FRONTEND_TECH":           "react",
		"FRONTEND_LABEL":          "React",
		"DATABASE_TECH":           "postgres",
		"USE_DOCKER":              "true",
		"USE_DOCKER_LABEL":        "Yes",
		"BACKEND_PORT":            "8000",
		"DB_NAME":                 "my_shop_api",
	}
	assert.Equal(t, want, map[string]string(vars))
}

func TestDeriveJavaPort(t *testing.T) {
	vars, err := Derive("orders", types.TechStack{Backend: types.BackendJava, Frontend: types.FrontendAngular})
	require.NoError(t, err)
	assert.Equal(t, "8080", vars["BACKEND_PORT"])
	assert.Equal(t, "false", vars["USE_DOCKER"])
	assert.Equal(t, "postgres", vars["DATABASE_TECH"])
}

func TestDeriveNormalizesStackCase(t *testing.T) {
	vars, err := Derive("demo", types.TechStack{Backend: "Python", Frontend: " React ", Database: "POSTGRES"})
	require.NoError(t, err)
	assert.Equal(t, "python", vars["BACKEND_TECH"])
	assert.Equal(t, "Python (Django)", vars["BACKEND_LABEL"])
	assert.Equal(t, "8000", vars["BACKEND_PORT"])
	assert.Equal(t, "react", vars["FRONTEND_TECH"])
	assert.Equal(t, "React", vars["FRONTEND_LABEL"])
	assert.Equal(t, "postgres", vars["DATABASE_TECH"])
}

func TestDeriveRejectsBadInput(t *testing.T) {
	_, err := Derive("x", types.TechStack{Backend: types.BackendJava, Frontend: types.FrontendReact})
	assert.Error(t, err)

	_, err = Derive("orders", types.TechStack{Backend: "go", Frontend: types.FrontendReact})
	assert.Error(t, err)
}
