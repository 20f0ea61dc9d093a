// Package notify sends plate alerts by SMS through Twilio.
//
// A notifier without credentials is valid: every send is then reported as
// skipped rather than failed, so the rest of a scan is unaffected.
package notify
