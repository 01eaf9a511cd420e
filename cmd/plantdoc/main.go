// Package main provides the entry point for the plantdoc CLI.
//
// plantdoc sends photos of plant leaves to a local diagnosis backend and
// reports the disease it recognizes, how sure it is, and what to do.
//
// Usage:
//
//	plantdoc diagnose leaf.jpg
//	plantdoc demo mildiou
//	plantdoc chat "how often should I water tomatoes?"
//
// See --help for all available options.
package main

func main() {
	Execute()
}
