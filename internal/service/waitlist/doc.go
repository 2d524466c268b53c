// Package waitlist lists waitlist signups for the admin dashboard and
// grants or revokes beta access.
package waitlist
