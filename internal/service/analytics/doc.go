// Package analytics computes the admin dashboard reports: approval email
// delivery statistics, headline user counts and waitlist growth.
package analytics
