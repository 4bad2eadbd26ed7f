// Package http implements the HTTP transport layer for the COT gateway.
// Handlers stay thin: they parse and validate requests, delegate to the
// service layer, and format responses.
//
// Two error surfaces exist and must not be confused:
//
//  1. Malformed requests (bad symbol, unknown trader class, unsupported
//     window) are rejected with RFC 7807 problem responses before any
//     service call.
//  2. Upstream and data failures never produce an HTTP error. The service
//     layer folds them into ok=false envelopes with well-formed neutral
//     payloads, and handlers serve those with status 200. Consumers branch
//     on ok and meta.source, never on transport exceptions.
package http
