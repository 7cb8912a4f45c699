package rbac

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tenantgate/pkg/catalog"
	"github.com/platinummonkey/tenantgate/pkg/codec"
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

type panickingEncoder struct{}

func (panickingEncoder) Encode(context.Context, string, []string) (string, error) {
	panic("boom")
}

func testCatalog() catalog.Catalog {
	return catalog.NewCatalog(map[string]catalog.Definition{
		catalog.SuperAdminKey: {Code: "a"},
		"can_x":               {Code: "x"},
		"can_y":               {Code: "y"},
		"can_edit":            {Code: "e"},
	})
}

func newTestChecker(opts ...Option) (*RoleChecker, *fakeProvider) {
	p := &fakeProvider{catalog: testCatalog()}
	return NewRoleChecker(codec.New(p, nil), opts...), p
}

func userWith(grants ...Grant) *User {
	return &User{ID: "42", Username: "ayse", Permissions: grants}
}

func TestCheckUserRoles_SuperAdminShortCircuit(t *testing.T) {
	checker, p := newTestChecker()
	p.err = catalog.ErrFetchFailed
	user := userWith(Grant{CompanyID: "c-1", Permissions: "va"})

	for _, roles := range [][]string{{"can_edit"}, {"unknown_role"}, {"can_x", "can_y"}} {
		assert.True(t, checker.CheckUserRoles(context.Background(), "tok", user, "c-1", roles, true))
	}
	assert.Zero(t, p.calls, "super admin must not touch the catalog")
}

func TestCheckUserRoles_CustomSuperAdminCode(t *testing.T) {
	checker, p := newTestChecker(WithSuperAdminCode("z"))
	user := userWith(Grant{CompanyID: "c-1", Permissions: "z"})

	assert.True(t, checker.CheckUserRoles(context.Background(), "tok", user, "c-1", []string{"can_edit"}, false))
	assert.Zero(t, p.calls)

	admin := userWith(Grant{CompanyID: "c-1", Permissions: "a"})
	assert.False(t, checker.CheckUserRoles(context.Background(), "tok", admin, "c-1", []string{"can_edit"}, false))
}

func TestCheckUserRoles_FailsClosedWithoutTenantGrant(t *testing.T) {
	checker, _ := newTestChecker()
	user := userWith(Grant{CompanyID: "company-Y", Permissions: "e"})

	assert.False(t, checker.CheckUserRoles(context.Background(), "tok", user, "company-X", []string{"can_edit"}, false))
	// Company IDs match exactly.
	assert.False(t, checker.CheckUserRoles(context.Background(), "tok", user, "company-y", []string{"can_edit"}, false))
}

func TestCheckUserRoles_FailsClosedWithoutUser(t *testing.T) {
	checker, p := newTestChecker()

	assert.False(t, checker.CheckUserRoles(context.Background(), "tok", nil, "c-1", []string{"can_edit"}, false))
	assert.False(t, checker.CheckUserRoles(context.Background(), "tok", &User{ID: "1"}, "c-1", []string{"can_edit"}, false))
	assert.Zero(t, p.calls)
}

func TestCheckUserRoles_AnyVersusAll(t *testing.T) {
	checker, _ := newTestChecker()
	user := userWith(Grant{CompanyID: "c-1", Permissions: "x"})
	roles := []string{"can_x", "can_y"}

	assert.True(t, checker.CheckUserRoles(context.Background(), "tok", user, "c-1", roles, false))
	assert.False(t, checker.CheckUserRoles(context.Background(), "tok", user, "c-1", roles, true))

	both := userWith(Grant{CompanyID: "c-1", Permissions: "yx"})
	assert.True(t, checker.CheckUserRoles(context.Background(), "tok", both, "c-1", roles, true))
}

func TestCheckUserRoles_UnknownRolesDropped(t *testing.T) {
	checker, _ := newTestChecker()
	user := userWith(Grant{CompanyID: "c-1", Permissions: "x"})

	// can_missing has no catalog entry, so AND only needs can_x.
	assert.True(t, checker.CheckUserRoles(context.Background(), "tok", user, "c-1", []string{"can_x", "can_missing"}, true))

	result := checker.Evaluate(context.Background(), "tok", user, "c-1", []string{"can_missing"}, false)
	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonUnknownRoles, result.Reason)

	result = checker.Evaluate(context.Background(), "tok", user, "c-1", nil, false)
	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonUnknownRoles, result.Reason)
}

func TestCheckUserRoles_CatalogFailureDenies(t *testing.T) {
	var buf bytes.Buffer
	p := &fakeProvider{err: errors.Join(catalog.ErrFetchFailed, errors.New("dial tcp: refused"))}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	checker := NewRoleChecker(codec.New(p, nil),
		WithLogger(observability.NewLogger(observability.DebugLevel, &buf)),
		WithMetrics(metrics),
	)
	user := userWith(Grant{CompanyID: "c-1", Permissions: "e"})

	result := checker.Evaluate(context.Background(), "tok", user, "c-1", []string{"can_edit"}, false)
	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonCatalogError, result.Reason)
	assert.Contains(t, buf.String(), "permission catalog unavailable")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RoleChecksTotal.WithLabelValues("false", "catalog_error")))
}

func TestCheckUserRoles_PanicDenies(t *testing.T) {
	checker := NewRoleChecker(panickingEncoder{})
	user := userWith(Grant{CompanyID: "c-1", Permissions: "e"})

	var allowed bool
	require.NotPanics(t, func() {
		allowed = checker.CheckUserRoles(context.Background(), "tok", user, "c-1", []string{"can_edit"}, false)
	})
	assert.False(t, allowed)
}

func TestEvaluate_Reasons(t *testing.T) {
	checker, _ := newTestChecker()
	user := userWith(Grant{CompanyID: "c-1", Permissions: "e"})

	result := checker.Evaluate(context.Background(), "tok", user, "c-1", []string{"can_edit", "can_x"}, false)
	assert.True(t, result.Allowed)
	assert.Equal(t, ReasonMatched, result.Reason)
	assert.Equal(t, []string{"e", "x"}, result.Required)

	result = checker.Evaluate(context.Background(), "tok", user, "c-1", []string{"can_x"}, false)
	assert.False(t, result.Allowed)
	assert.Equal(t, ReasonNotMatched, result.Reason)
}

func TestParseCodes(t *testing.T) {
	set := ParseCodes("eev")
	assert.Len(t, set, 2)
	assert.True(t, set.Has("e"))
	assert.False(t, set.Has("a"))
	assert.Empty(t, ParseCodes(""))
}

func TestUser_GrantFor(t *testing.T) {
	var nilUser *User
	_, ok := nilUser.GrantFor("c-1")
	assert.False(t, ok)

	user := userWith(Grant{CompanyID: "c-1", Permissions: "e"}, Grant{CompanyID: "c-2", Permissions: "v"})
	g, ok := user.GrantFor("c-2")
	require.True(t, ok)
	assert.Equal(t, "v", g.Permissions)
}
