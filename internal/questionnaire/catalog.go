package questionnaire

import (
	"encoding/json"
	"os"
)

// DefaultKey is the catalog entry used for emails without their own
// question set.
const DefaultKey = "default"

// Catalog maps email id to its question tree.
type Catalog map[string][]Question

// LoadCatalog reads a questions.json file. A missing or unparseable
// file yields an empty catalog; the study keeps running with no
// questions rather than failing the whole mailbox.
func LoadCatalog(path string) Catalog {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}
	}
	var c Catalog
	if err := json.Unmarshal(buf, &c); err != nil {
		return Catalog{}
	}
	return c
}

// For returns the tree for an email, falling back to the default set.
func (c Catalog) For(emailID string) []Question {
	if qs, ok := c[emailID]; ok {
		return qs
	}
	return c[DefaultKey]
}
