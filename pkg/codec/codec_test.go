package codec

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenantgate/pkg/catalog"
	"github.com/platinummonkey/tenantgate/pkg/contextkeys"
	"github.com/platinummonkey/tenantgate/pkg/observability"
)

type fakeProvider struct {
	catalog catalog.Catalog
	err     error
	calls   int
}

func (p *fakeProvider) GetPermissions(_ context.Context, _ string) (catalog.Catalog, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.catalog, nil
}

func testCatalog() catalog.Catalog {
	return catalog.NewCatalog(map[string]catalog.Definition{
		catalog.SuperAdminKey:  {Code: "a", Name: "System admin", Category: "system"},
		"can_edit":             {Code: "e", Name: "Edit"},
		"can_view_employees":   {Code: "v", Name: "View employees"},
		"can_edit_work_hours":  {Code: "w", Name: "Edit work hours"},
		"can_manage_transfers": {Code: "t", Name: "Manage transfers"},
	})
}

func newTestCodec() (*Codec, *fakeProvider) {
	p := &fakeProvider{catalog: testCatalog()}
	return New(p, nil), p
}

func TestDecode_SkipsUnknownCodes(t *testing.T) {
	c, p := newTestCodec()
	p.catalog = catalog.NewCatalog(map[string]catalog.Definition{
		catalog.SuperAdminKey: {Code: "a"},
	})

	keys, err := c.Decode(context.Background(), "tok", "aZ")
	require.NoError(t, err)
	assert.Equal(t, []string{catalog.SuperAdminKey}, keys)
}

func TestDecode_PreservesOrder(t *testing.T) {
	c, _ := newTestCodec()

	keys, err := c.Decode(context.Background(), "tok", "wea")
	require.NoError(t, err)
	assert.Equal(t, []string{"can_edit_work_hours", "can_edit", catalog.SuperAdminKey}, keys)
}

func TestDecode_EmptyInputSkipsCatalog(t *testing.T) {
	c, p := newTestCodec()
	p.err = catalog.ErrFetchFailed

	keys, err := c.Decode(context.Background(), "tok", "")
	require.NoError(t, err)
	assert.NotNil(t, keys)
	assert.Empty(t, keys)
	assert.Zero(t, p.calls)
}

func TestEncode(t *testing.T) {
	c, _ := newTestCodec()

	codes, err := c.Encode(context.Background(), "tok", []string{"can_view_employees", "nope", "can_edit"})
	require.NoError(t, err)
	assert.Equal(t, "ve", codes)
}

func TestEncode_EmptyInputSkipsCatalog(t *testing.T) {
	c, p := newTestCodec()

	for _, keys := range [][]string{nil, {}, {"", ""}} {
		codes, err := c.Encode(context.Background(), "tok", keys)
		require.NoError(t, err)
		assert.Equal(t, "", codes)
	}
	assert.Zero(t, p.calls)
}

func TestRoundTrip(t *testing.T) {
	c, _ := newTestCodec()
	ctx := context.Background()

	all := testCatalog().Keys()
	// Every prefix and suffix of the sorted key list is a subset worth checking.
	for i := 0; i <= len(all); i++ {
		for _, subset := range [][]string{all[:i], all[i:]} {
			t.Run(fmt.Sprint(subset), func(t *testing.T) {
				codes, err := c.Encode(ctx, "tok", subset)
				require.NoError(t, err)
				assert.Len(t, codes, len(subset))

				keys, err := c.Decode(ctx, "tok", codes)
				require.NoError(t, err)
				assert.Equal(t, subset, keys)
				assert.ElementsMatch(t, subset, keys)
			})
		}
	}

	reversed := append([]string(nil), all...)
	sort.Sort(sort.Reverse(sort.StringSlice(reversed)))
	codes, err := c.Encode(ctx, "tok", reversed)
	require.NoError(t, err)
	keys, err := c.Decode(ctx, "tok", codes)
	require.NoError(t, err)
	assert.Equal(t, reversed, keys)
}

func TestLookups(t *testing.T) {
	c, _ := newTestCodec()
	ctx := context.Background()

	key, ok, err := c.LookupByCode(ctx, "tok", "t")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "can_manage_transfers", key)

	_, ok, err = c.LookupByCode(ctx, "tok", "Z")
	require.NoError(t, err)
	assert.False(t, ok)

	def, ok, err := c.LookupByKey(ctx, "tok", "can_edit")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "e", def.Code)
	assert.Equal(t, catalog.Uncategorized, def.Category)

	_, ok, err = c.LookupByKey(ctx, "tok", "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchFailurePropagates(t *testing.T) {
	c, p := newTestCodec()
	p.err = fmt.Errorf("%w: unexpected status 502", catalog.ErrFetchFailed)
	ctx := context.Background()

	_, err := c.Decode(ctx, "tok", "a")
	assert.ErrorIs(t, err, catalog.ErrFetchFailed)

	_, err = c.Encode(ctx, "tok", []string{"can_edit"})
	assert.ErrorIs(t, err, catalog.ErrFetchFailed)

	_, _, err = c.LookupByCode(ctx, "tok", "a")
	assert.ErrorIs(t, err, catalog.ErrFetchFailed)

	_, _, err = c.LookupByKey(ctx, "tok", "can_edit")
	assert.ErrorIs(t, err, catalog.ErrFetchFailed)
}

func TestOrEmptyVariantsDegrade(t *testing.T) {
	var buf bytes.Buffer
	p := &fakeProvider{err: catalog.ErrFetchFailed}
	c := New(p, observability.NewLogger(observability.DebugLevel, &buf))
	ctx := contextkeys.WithRequestID(context.Background(), "req-1")

	assert.Equal(t, []string{}, c.DecodeOrEmpty(ctx, "tok", "ae"))
	assert.Equal(t, "", c.EncodeOrEmpty(ctx, "tok", []string{"can_edit"}))
	assert.Contains(t, buf.String(), "failed to decode permission codes")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	p.err = nil
	p.catalog = testCatalog()
	assert.Equal(t, []string{"can_edit"}, c.DecodeOrEmpty(ctx, "tok", "e"))
	assert.Equal(t, "e", c.EncodeOrEmpty(ctx, "tok", []string{"can_edit"}))
}
