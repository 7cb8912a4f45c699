// Package codec translates between grant strings and permission keys.
//
// A grant string holds one single-character code per granted permission, so
// "aev" grants the three permissions whose catalog codes are a, e and v. Every
// translation goes through the catalog served by catalog.Cache.
package codec

import (
	"context"
	"strings"

	"github.com/platinummonkey/tenantgate/pkg/catalog"
	"github.com/platinummonkey/tenantgate/pkg/observability"
)

// CatalogProvider supplies the catalog for the active language.
// *catalog.Cache implements it.
type CatalogProvider interface {
	GetPermissions(ctx context.Context, token string) (catalog.Catalog, error)
}

// Codec is the translation boundary between grant strings and permission keys
type Codec struct {
	provider CatalogProvider
	logger   *observability.Logger
}

// New creates a codec over provider. A nil logger disables logging.
func New(provider CatalogProvider, logger *observability.Logger) *Codec {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Codec{
		provider: provider,
		logger:   logger.WithField("component", "permission_codec"),
	}
}

// Decode returns the keys for each code in codes, left to right. Codes with
// no catalog entry are skipped. An empty string returns an empty slice
// without loading the catalog.
func (c *Codec) Decode(ctx context.Context, token, codes string) ([]string, error) {
	keys := []string{}
	if codes == "" {
		return keys, nil
	}

	cat, err := c.provider.GetPermissions(ctx, token)
	if err != nil {
		return nil, err
	}

	index := cat.CodeIndex()
	for _, r := range codes {
		if key, ok := index[string(r)]; ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Encode returns the concatenated codes of keys in input order, skipping keys
// without a catalog entry. An empty or blank-only input returns "" without
// loading the catalog.
func (c *Codec) Encode(ctx context.Context, token string, keys []string) (string, error) {
	if !hasKey(keys) {
		return "", nil
	}

	cat, err := c.provider.GetPermissions(ctx, token)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(keys))
	for _, key := range keys {
		if def, ok := cat[key]; ok {
			b.WriteString(def.Code)
		}
	}
	return b.String(), nil
}

// LookupByCode returns the key whose code equals code. When several keys
// share a code the first in sorted key order wins.
func (c *Codec) LookupByCode(ctx context.Context, token, code string) (string, bool, error) {
	cat, err := c.provider.GetPermissions(ctx, token)
	if err != nil {
		return "", false, err
	}
	key, ok := cat.CodeIndex()[code]
	return key, ok, nil
}

// LookupByKey returns the definition stored under key
func (c *Codec) LookupByKey(ctx context.Context, token, key string) (catalog.Definition, bool, error) {
	cat, err := c.provider.GetPermissions(ctx, token)
	if err != nil {
		return catalog.Definition{}, false, err
	}
	def, ok := cat.Get(key)
	return def, ok, nil
}

// DecodeOrEmpty is Decode for display call sites: a catalog failure is
// logged and yields an empty slice.
func (c *Codec) DecodeOrEmpty(ctx context.Context, token, codes string) []string {
	keys, err := c.Decode(ctx, token, codes)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("failed to decode permission codes")
		return []string{}
	}
	return keys
}

// EncodeOrEmpty is Encode for display call sites: a catalog failure is
// logged and yields "".
func (c *Codec) EncodeOrEmpty(ctx context.Context, token string, keys []string) string {
	codes, err := c.Encode(ctx, token, keys)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("failed to encode permission keys")
		return ""
	}
	return codes
}

func hasKey(keys []string) bool {
	for _, k := range keys {
		if k != "" {
			return true
		}
	}
	return false
}
