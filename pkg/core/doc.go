// Package core provides a small, stable facade over Scrubward's internal
// pipeline for external integrations. It deliberately re-exports a narrow
// API surface so embedding programs can depend on a stable import path
// without reaching into internal implementation packages.
//
// Example:
//
//	p, err := core.NewPipeline(core.Config{Salt: salt, Key: key, DataDir: "data"})
//	if err != nil { /* handle */ }
//	defer p.Close()
//	res, err := p.Scrub(ctx, core.ScrubRequest{Content: text, Tier: core.TierC3, Actor: "svc"})
package core
