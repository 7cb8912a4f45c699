package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Uncategorized is the category given to definitions the endpoint leaves blank
const Uncategorized = "uncategorized"

// SuperAdminKey is the well-known key of the permission that bypasses role checks
const SuperAdminKey = "sys_admin"

// Definition describes one permission of the catalog
type Definition struct {
	Key         string `json:"-"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Catalog maps permission keys to their definitions for one language.
// A catalog is treated as immutable once fetched.
type Catalog map[string]Definition

// NewCatalog copies defs into a catalog, filling Key from the map key and
// defaulting blank categories to Uncategorized.
func NewCatalog(defs map[string]Definition) Catalog {
	c := make(Catalog, len(defs))
	for key, def := range defs {
		def.Key = key
		if strings.TrimSpace(def.Category) == "" {
			def.Category = Uncategorized
		}
		c[key] = def
	}
	return c
}

// UnmarshalJSON decodes a key -> definition object and normalizes it
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var raw map[string]Definition
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = NewCatalog(raw)
	return nil
}

// Validate checks that every code is a single ASCII character and unique
func (c Catalog) Validate() error {
	seen := make(map[string]string, len(c))
	for _, key := range c.Keys() {
		code := c[key].Code
		if len(code) != 1 || code[0] > 0x7f {
			return fmt.Errorf("%w: permission %q has code %q, want one ASCII character", ErrInvalidCatalog, key, code)
		}
		if other, dup := seen[code]; dup {
			return fmt.Errorf("%w: code %q used by both %q and %q", ErrInvalidCatalog, code, other, key)
		}
		seen[code] = key
	}
	return nil
}

// Keys returns the permission keys in sorted order
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the definition for key
func (c Catalog) Get(key string) (Definition, bool) {
	def, ok := c[key]
	return def, ok
}

// CodeIndex maps each code to its key. When codes collide the first key in
// sorted order wins, which keeps lookups deterministic.
func (c Catalog) CodeIndex() map[string]string {
	index := make(map[string]string, len(c))
	for _, key := range c.Keys() {
		code := c[key].Code
		if _, taken := index[code]; !taken {
			index[code] = key
		}
	}
	return index
}

// ByCategory groups definitions by category, each group sorted by key
func (c Catalog) ByCategory() map[string][]Definition {
	groups := make(map[string][]Definition)
	for _, key := range c.Keys() {
		def := c[key]
		groups[def.Category] = append(groups[def.Category], def)
	}
	return groups
}

// CachedCatalog is the persisted cache record
type CachedCatalog struct {
	Data      Catalog `json:"data"`
	Timestamp int64   `json:"timestamp"` // epoch milliseconds
	Lang      string  `json:"lang"`
}
