// Package services contains the business layer between the HTTP transport
// and the fetch orchestrator. The gateway service owns the response cache
// domain and the ok/error/meta/data envelope contract; the health service
// summarizes process and cache state for operational dashboards.
package services
