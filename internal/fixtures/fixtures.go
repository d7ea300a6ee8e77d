// Package fixtures loads the static data the service ships with: the
// knowledge table, sample customers, the product catalog and the workshop
// service menu.
package fixtures

import (
	"embed"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/ent0n29/contactcenter/internal/stages"
	"github.com/ent0n29/contactcenter/internal/tools"
)

//go:embed data/*.yaml
var embedded embed.FS

const (
	knowledgeFile = "data/knowledge.yaml"
	customersFile = "data/customers.yaml"
	catalogFile   = "data/catalog.yaml"
	servicesFile  = "data/services.yaml"
)

// Bundle is every fixture decoded.
type Bundle struct {
	Knowledge   stages.KnowledgeBase
	Customers   []stages.Profile
	Catalog     tools.Catalog
	ServiceMenu tools.ServiceMenu
}

// Load decodes the embedded fixtures.
func Load() (*Bundle, error) {
	return LoadFS(embedded)
}

// LoadFS decodes fixtures from fsys, which must contain the same data/
// layout as the embedded set.
func LoadFS(fsys fs.FS) (*Bundle, error) {
	var b Bundle
	if err := decode(fsys, knowledgeFile, &b.Knowledge); err != nil {
		return nil, err
	}
	if err := decode(fsys, customersFile, &b.Customers); err != nil {
		return nil, err
	}
	if err := decode(fsys, catalogFile, &b.Catalog); err != nil {
		return nil, err
	}
	if err := decode(fsys, servicesFile, &b.ServiceMenu); err != nil {
		return nil, err
	}
	for category := range b.Knowledge {
		if !category.Valid() {
			return nil, fmt.Errorf("%s: unknown category %q", knowledgeFile, category)
		}
	}
	for i, c := range b.Customers {
		if c.ID == "" || c.Name == "" {
			return nil, fmt.Errorf("%s: customer %d needs id and name", customersFile, i)
		}
	}
	return &b, nil
}

func decode(fsys fs.FS, name string, out any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
