// Package rbac decides whether a user holds the roles a tenant-scoped
// resource requires.
//
// # Overview
//
// Users carry one grant per tenant (company). A grant is a string of
// single-character permission codes:
//
//	user := &rbac.User{
//		ID:       "42",
//		Username: "ayse",
//		Permissions: []rbac.Grant{
//			{CompanyID: "c-1", Permissions: "ev"},
//			{CompanyID: "c-2", Permissions: "a"},
//		},
//	}
//
// Required roles are expressed as permission keys ("can_edit"). The checker
// translates them to codes through the catalog and compares them with the
// grant for the requested tenant.
//
// # Evaluation
//
//  1. A nil user, a user without grants, or no grant for the tenant is denied.
//  2. A grant containing the super-admin code ('a' by default, the code of
//     sys_admin) is allowed without consulting the catalog.
//  3. Required keys are mapped to codes; keys unknown to the catalog are
//     dropped. No resolved code means deny.
//  4. With fullMatch every resolved code must be granted (AND); otherwise one
//     is enough (OR).
//
// # Failure Policy
//
// CheckUserRoles never returns an error and never panics. Catalog failures
// and unexpected panics are logged and turn into a denial.
//
//	checker := rbac.NewRoleChecker(codec.New(cache, logger),
//		rbac.WithLogger(logger),
//		rbac.WithMetrics(metrics),
//	)
//	if !checker.CheckUserRoles(ctx, token, user, "c-1", []string{"can_edit"}, false) {
//		// render 403
//	}
package rbac
