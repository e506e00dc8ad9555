// Package orgkit provides organization-scoped role authorization for
// multi-tenant applications.
//
// A user may belong to many organizations, holding exactly one effective role
// in each. Every protected operation declares a named policy, and orgkit
// answers whether the current principal may perform it in the organization
// they are currently acting within.
//
// # Core Concepts
//
// Principal: the authenticated caller, carrying the ID of their active
// organization. Built once per request by the identity layer.
//
// Membership: a (user, organization, role) grant with a lifecycle of active,
// suspended and revoked. Only active memberships are effective. Rows are never
// hard-deleted.
//
// PolicyRequirement: a named set of allowed roles. An empty set means any
// effective member.
//
// Decision: Allow or Deny with a Reason, the requirement and the organization
// that was actually checked.
//
// # Basic Usage
//
//	// 1. Define policies (at application startup)
//	registry := orgkit.NewRegistry()
//	registry.
//	    Define("leases.sign").Allow(orgkit.RoleOwner, orgkit.RoleManager).
//	    Define("maintenance.update").Allow(orgkit.RoleMaintenance, orgkit.RoleManager).
//	    Define("documents.read").AnyMember()
//
//	// or load them from YAML
//	registry, err := orgkit.LoadRegistryFile("policies.yaml")
//
//	// 2. Create the store and engine
//	store := orgkit.NewStore(db)
//	store.Migrate(ctx)
//	engine, err := orgkit.NewEngine(registry, store, orgkit.NewLoadingResolver(store),
//	    orgkit.WithAuditSink(store))
//
//	// 3. Check
//	d, err := engine.Authorize(ctx, principal, "leases.sign")
//	if err != nil {
//	    return err
//	}
//	if !d.Allowed() {
//	    return d.Err()
//	}
//
// # Failure Semantics
//
// The engine fails closed. A store that cannot be read produces a Deny with
// ReasonStoreUnavailable; it is never retried internally. A cancelled context
// aborts the check without a Decision. Decisions are never cached.
//
// # Middleware Usage
//
//	mw := orgkit.NewMiddleware(engine)
//	mux.Handle("POST /leases/{id}/sign", mw.RequirePolicy("leases.sign")(signHandler))
//
//	router.POST("/leases/:id/sign",
//	    orgkit.GinRequirePolicy(engine, "leases.sign", nil), signLease)
//
// Connect RPC handlers are guarded with NewConnectInterceptor.
//
// # Audit Log
//
// Every decision can be delivered to an AuditSink. Membership changes made
// through Store or MemoryStore are recorded with the actor, previous and new
// role and state, and request metadata (IP, user agent, request ID).
package orgkit
