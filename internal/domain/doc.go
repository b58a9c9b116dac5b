// Package domain holds the bridge's shared vocabulary: Host command
// classification, the run flag, Console connection states and the contracts
// between the poll loop, its sources and the Console.
//
// No I/O lives here.
package domain
