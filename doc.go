// Package consistency provides a store-agnostic manager for outbox messages.
//
// Typical flow:
//  1. At startup, register a backend store for a (message, backend context, key) triple
//     with AddStore or a backend helper such as mysql.AddStores.
//  2. Resolve a Manager from the registry with ResolveManager.
//  3. Create, look up and delete messages through the Manager. Business failures
//     (validation, duplicate key, not found, recognized store failures) come back as an
//     OperationResult; cancellation and unexpected store errors come back as errors.
//
// For SQL backends see the sqlstore package and its mysql, postgres and sqlite dialects.
package consistency
