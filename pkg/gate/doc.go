// Package gate turns role checks into Pending/Granted/Denied decisions for
// routes and UI components.
//
// # Gate
//
// A Gate owns one decision. Update feeds it the user, token, tenant and
// required roles:
//
//	g := gate.New(checker, gate.WithGuard("component"))
//	defer g.Close()
//	g.Subscribe(func(d gate.Decision) { render(d) })
//	g.Update(gate.Input{User: user, Token: token, CompanyID: "c-1", Roles: []string{"can_edit"}})
//
// No required roles grants immediately and never touches the network. A
// missing tenant, user or token denies immediately. Anything else stays
// Pending while the role checker runs on a goroutine. Changing the input
// starts a new generation; a result from an older generation is dropped, as
// is any result arriving after Close.
//
// # HTTP Guards
//
// Middleware adapts gates to gorilla/mux routes. RequireRoles reads the
// tenant from the {company_id} route variable and answers 403 with the
// unauthorized view when denied. RequireAuth and RequireGuest redirect with
// 303 and a returnTo parameter:
//
//	router.Handle("/companies/{company_id}/employees",
//		httputil.Chain(m.RequireAuth(""), m.RequireRoles([]string{"can_view_employees"}, false))(h))
//
// Routes can also be declared in YAML and mounted with RouteTable.Register.
package gate
