// Copyright Contributors to the Open Cluster Management project

package fortigate

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v2"
)

// APIs of the FortiOS REST interface.
const (
	APICmdb    = "cmdb"
	APIMonitor = "monitor"
)

// Table describes one FortiOS table.
type Table struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	Key  string `yaml:"key"` // empty for tables holding a single settings object
	API  string `yaml:"api"` // cmdb unless set
}

// Singleton reports whether the table holds a single settings object.
func (t Table) Singleton() bool {
	return t.Key == ""
}

//go:embed catalog.yaml
var catalogYAML []byte

var catalog = mustLoadCatalog(catalogYAML)

func loadCatalog(data []byte) (map[string]Table, error) {
	doc := struct {
		Tables []Table `yaml:"tables"`
	}{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing table catalog: %w", err)
	}
	tables := make(map[string]Table, len(doc.Tables))
	for _, t := range doc.Tables {
		if t.Name == "" || t.Path == "" {
			return nil, fmt.Errorf("table catalog entry without name or path: %+v", t)
		}
		if t.API == "" {
			t.API = APICmdb
		}
		tables[t.Name] = t
	}
	return tables, nil
}

func mustLoadCatalog(data []byte) map[string]Table {
	tables, err := loadCatalog(data)
	if err != nil {
		panic(err)
	}
	return tables
}

// Lookup returns the table registered under name.
func Lookup(name string) (Table, bool) {
	t, ok := catalog[name]
	return t, ok
}
