// Package app runs the Host poll loop.
//
// Each tick pulls at most one command from the configured source and hands it
// to the dispatcher. The loop ends when the run flag is stopped, either by a
// terminate command or by shutdown.
package app
