// Package approval implements the beta approval email workflow.
//
// A send validates the waitlist record, renders the approval template,
// dispatches it through the configured provider and then records the attempt
// in the email tracking log. Once the provider has accepted a message the
// bookkeeping writes are best-effort: a failed write is logged and counted,
// never reported to the caller, because the email has already gone out.
//
// Open-tracking beacon hits are folded back into the tracking log and the
// waitlist record by RecordOpen, which never fails.
package approval
