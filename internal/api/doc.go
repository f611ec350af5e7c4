// Package api provides the inbound message ingestion HTTP surface.
package api
