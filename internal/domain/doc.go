// Package domain defines the core types of the Agentdrop admin console.
//
// Types in this package are plain value objects shared by handlers, services
// and repositories. They carry no database handles and no HTTP concerns.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed
//   - Small pure helpers on the types are allowed
//   - Constants and enums belong here
package domain
