// Package authz implements the declarative authorization matrix and the
// scope resolver every operation is gated by.
//
// Core concepts:
//
//   - Actor: a single authenticated identity per request, set via WithActor
//     (set-once) or NewSystemContext for background work.
//
//   - Matrix: the immutable (resourceType, role) -> operation -> scope
//     table, validated exhaustively at process start. A missing cell is a
//     boot failure, never a runtime default.
//
//   - Resolver: a pure function over (actor, matrix, target) producing a
//     Decision and the effective scope for list filters.
//
// Usage rules:
//
//  1. Every read and mutation path calls Authorize or BuildListFilter;
//     there are no inline role checks outside this package.
//  2. A deny against a concrete target must be surfaced as not-found.
//  3. Background tasks declare the system actor via NewSystemContext.
package authz
