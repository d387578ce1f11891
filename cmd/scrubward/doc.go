// Package scrubward provides the command-line interface for the Scrubward
// tool. It configures subcommands (scrub, descrub, audit, etc.), parses
// flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/scrubward/scrubward/cmd/scrubward"
//	func main() { scrubward.Execute() }
package scrubward
