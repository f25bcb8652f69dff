// Package todo provides a client for the Microsoft Graph beta outlook tasks
// API, the backend of Microsoft To Do.
//
// The client covers what the bridge needs and nothing more:
//   - Listing task folders and resolving a folder by display name
//     (icon-glyph prefixes are stripped before comparison)
//   - Fetching uncompleted tasks of a folder
//   - Creating tasks with optional note, due date and reminder
//
// Results are capped at a fixed page size; the client deliberately does not
// follow @odata.nextLink. Collections larger than the cap are truncated.
//
// Authentication is supplied from outside as an *http.Client that injects
// bearer tokens; the client never touches token handling itself.
package todo
