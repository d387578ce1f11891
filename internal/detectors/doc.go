// Package detectors implements the rule-based entity detectors used by
// Scrubward. Each detector reports zero or more candidates for a given
// content unit; detectors are pure functions and safe to run concurrently.
package detectors
