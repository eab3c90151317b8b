// Package authz provides the authorization model of the tenancy core:
// a single-principal identity per unit of work, per-resource policies that
// consult memberships, and a controlled unscoped escape hatch for the
// tenant-scoped store.
//
// Core concepts:
//
//   - Principal: A single authorization identity per unit of work
//     (System/User/Test). Set via NewSystemContext, NewUserContext,
//     NewTestContext, or WithPrincipal.
//
//   - Unscoped: Controlled bypass of the implicit tenant filter via
//     RunUnscoped (closure, preferred) or WithUnscoped (explicit context).
//     All unscoped operations are audited.
//
//   - Policies: Per-resource deciders (CanList/CanView/CanCreate/CanUpdate/
//     CanDelete) evaluated against active memberships, read fresh per
//     decision. VisibleAccounts/VisibleWorkspaces/VisibleTeams return the
//     record sets the point-wise CanView check accepts.
//
// Usage rules:
//
//  1. Prefer RunUnscoped closures to limit the bypass scope.
//  2. When using WithUnscoped, assign to unscopedCtx, never ctx.
//  3. All unscoped reasons must be stable strings for audit aggregation.
//  4. Background tasks must declare System principal via NewSystemContext.
package authz
