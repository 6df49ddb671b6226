// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate checks rendered files before they are written: data
// files must parse, no placeholder may survive rendering, and Python
// sources can optionally be compiled inside a container.
package validate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scaffold-engine/internal/container"
	"github.com/pdiddy/scaffold-engine/internal/placeholder"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

// PythonImage is the image used by Python.
const PythonImage = "python:3.11-slim"

// Issue is one problem found in a generated file.
type Issue struct {
	Path    string `json:"path" yaml:"path"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", i.Path, i.Line, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Files runs the in-process checks over files and returns the issues
// sorted by path.
func Files(files []types.GeneratedFile) []Issue {
	var issues []Issue
	for _, f := range files {
		if keys := placeholder.Tokens(f.Content); len(keys) > 0 {
			issues = append(issues, Issue{Path: f.Path, Message: "unresolved placeholder(s): " + strings.Join(keys, ", ")})
		}
		if keys := placeholder.Tokens(f.Path); len(keys) > 0 {
			issues = append(issues, Issue{Path: f.Path, Message: "unresolved placeholder(s) in path: " + strings.Join(keys, ", ")})
		}

		var err error
		switch strings.ToLower(path.Ext(f.Path)) {
		case ".yml", ".yaml":
			err = checkYAML(f.Content)
		case ".json":
			err = checkJSON(f.Content)
		case ".xml", ".csproj":
			err = checkXML(f.Content)
		}
		if err != nil {
			issues = append(issues, Issue{Path: f.Path, Message: err.Error()})
		}
	}
	sort.SliceStable(issues, func(a, b int) bool { return issues[a].Path < issues[b].Path })
	return issues
}

// checkYAML decodes every document of a stream.
func checkYAML(content string) error {
	dec := yaml.NewDecoder(strings.NewReader(content))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("invalid yaml: %w", err)
		}
	}
}

func checkJSON(content string) error {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func checkXML(content string) error {
	dec := xml.NewDecoder(strings.NewReader(content))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("invalid xml: %w", err)
		}
	}
}

// pythonCheck parses every file of a JSON object {path: source} read from
// stdin and prints "path<TAB>line<TAB>message" per syntax error.
const pythonCheck = `import ast, json, sys
for p, s in sorted(json.load(sys.stdin).items()):
    try:
        ast.parse(s, p)
    except SyntaxError as e:
        print(f"{p}\t{e.lineno or 0}\t{e.msg}")
`

// Python compiles every .py file in files with the Python parser inside a
// PythonImage container. All files go through one container run.
func Python(ctx context.Context, rt container.Runtime, files []types.GeneratedFile) ([]Issue, error) {
	sources := make(map[string]string)
	for _, f := range files {
		if strings.HasSuffix(f.Path, ".py") {
			sources[f.Path] = f.Content
		}
	}
	if len(sources) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(sources)
	if err != nil {
		return nil, fmt.Errorf("encoding python sources: %w", err)
	}

	var out bytes.Buffer
	err = rt.Run(ctx, container.RunSpec{
		Image:  PythonImage,
		Args:   []string{"python", "-c", pythonCheck},
		Stdin:  bytes.NewReader(payload),
		Stdout: &out,
	})
	if err != nil {
		return nil, fmt.Errorf("checking python sources: %w", err)
	}
	return parsePythonReport(&out), nil
}

func parsePythonReport(r io.Reader) []Issue {
	var issues []Issue
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.SplitN(sc.Text(), "\t", 3)
		if len(fields) != 3 {
			continue
		}
		line, _ := strconv.Atoi(fields[1])
		issues = append(issues, Issue{Path: fields[0], Line: line, Message: "syntax error: " + fields[2]})
	}
	return issues
}
