package mcptests

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogData []byte

// Catalog is a declarative list of tool cases, grouped in sections.
type Catalog struct {
	Sections []CatalogSection `yaml:"sections"`
}

type CatalogSection struct {
	Title string     `yaml:"title"`
	Cases []ToolCase `yaml:"cases"`
}

// ToolCase describes one tools/call case.
type ToolCase struct {
	Name        string                 `yaml:"name"`
	Tool        string                 `yaml:"tool"`
	WithProject bool                   `yaml:"withProject"`
	Arguments   map[string]interface{} `yaml:"arguments"`
	Timeout     time.Duration          `yaml:"timeout"`
	Expect      Expectation            `yaml:"expect"`
}

// Expectation is what a ToolCase asserts. The zero value asserts the success shape only.
type Expectation struct {
	// ErrorCode, if set, asserts the error shape with this code instead.
	ErrorCode *int `yaml:"errorCode"`
	// NonEmptyText asserts that the result has non-empty text content.
	NonEmptyText bool `yaml:"nonEmptyText"`
	// TextContains asserts that the result text contains this substring.
	TextContains string `yaml:"textContains"`
}

// DefaultCatalog returns the built-in tool cases.
func DefaultCatalog() Catalog {
	c, err := ParseCatalog(bytes.NewReader(defaultCatalogData))
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %s", err))
	}
	return c
}

// LoadCatalogFile reads a catalog from a YAML file.
func LoadCatalogFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, err
	}
	defer f.Close()
	c, err := ParseCatalog(f)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes and validates a catalog. Unknown fields are rejected.
func ParseCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, c.validate()
}

func (c Catalog) validate() error {
	for i, s := range c.Sections {
		if s.Title == "" {
			return fmt.Errorf("section %d has no title", i+1)
		}
		for j, tc := range s.Cases {
			switch {
			case tc.Name == "":
				return fmt.Errorf("case %d in section %q has no name", j+1, s.Title)
			case tc.Tool == "":
				return fmt.Errorf("case %q has no tool", tc.Name)
			case tc.Timeout < 0:
				return fmt.Errorf("case %q has a negative timeout", tc.Name)
			case tc.Expect.ErrorCode != nil && (tc.Expect.NonEmptyText || tc.Expect.TextContains != ""):
				return fmt.Errorf("case %q expects both an error and result text", tc.Name)
			}
		}
	}
	return nil
}

// ArgumentsFor builds the tool arguments, adding projectName when the case asks for it.
func (tc ToolCase) ArgumentsFor(project string) ldvalue.Value {
	if !tc.WithProject && len(tc.Arguments) == 0 {
		return ldvalue.Null()
	}
	b := ldvalue.ObjectBuild()
	if tc.WithProject {
		b.Set("projectName", ldvalue.String(project))
	}
	for k, v := range tc.Arguments {
		b.Set(k, ldvalue.CopyArbitraryValue(v))
	}
	return b.Build()
}

// Run is the body of the case.
func (tc ToolCase) Run(t *T) {
	resp := t.CallTool(tc.Tool, tc.ArgumentsFor(t.Project()), tc.Timeout)
	if tc.Expect.ErrorCode != nil {
		t.RequireErrorCode(resp, *tc.Expect.ErrorCode)
		return
	}
	result := t.RequireSuccess(resp)
	text := ResultText(result)
	if tc.Expect.NonEmptyText && len(text) == 0 {
		t.Failf("Empty text result from %s", tc.Tool)
	}
	if tc.Expect.TextContains != "" && !strings.Contains(text, tc.Expect.TextContains) {
		t.Failf("Result text of %s does not contain %q: %s", tc.Tool, tc.Expect.TextContains, text)
	}
}
