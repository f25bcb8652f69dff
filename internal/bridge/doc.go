// Package bridge exposes Microsoft To Do lists to the home-automation host
// as entities.
//
// Every task folder becomes a calendar-style entity whose attributes carry
// the uncompleted task subjects (all, due today, overdue); configured lists
// additionally get a sensor entity whose state is the uncompleted count.
// Entities are refreshed on a poll interval and their states published
// through an in-memory registry served by the HTTP layer.
//
// The bridge also owns the reaction to credential failures: an invalid
// authentication response from the task API discards the stored token and
// re-surfaces the authorization URL, mirroring the initial setup flow.
package bridge
