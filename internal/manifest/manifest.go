// Package manifest reads the project's dependency manifest (package.json)
// and counts its declared dependencies.
package manifest

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Counts holds the number of declared dependencies by kind.
type Counts struct {
	Runtime     int
	Development int
}

// Total returns runtime plus development dependencies.
func (c Counts) Total() int {
	return c.Runtime + c.Development
}

// Read loads the manifest at path and counts its dependencies and
// devDependencies entries. A missing or malformed manifest is an error.
func Read(path string) (Counts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Counts{}, fmt.Errorf("read manifest %s: %w", path, err)
	}

	if !gjson.ValidBytes(data) {
		return Counts{}, fmt.Errorf("manifest %s is not valid JSON", path)
	}

	var counts Counts
	if deps := gjson.GetBytes(data, "dependencies"); deps.IsObject() {
		counts.Runtime = len(deps.Map())
	}
	if devDeps := gjson.GetBytes(data, "devDependencies"); devDeps.IsObject() {
		counts.Development = len(devDeps.Map())
	}

	return counts, nil
}
