// Package server exposes the HTTP surface of the bridge: the OAuth2
// callback endpoint, the new-task service, entity state lookups, health
// probes, and a dedicated Prometheus metrics listener.
package server
