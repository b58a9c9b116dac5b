// Package console talks to the lighting Console over its websocket API.
//
// Client keeps one connection open and reconnects on a fixed delay after any
// drop or failed send. OneShot opens a fresh connection per message for
// Consoles that expect the legacy behaviour.
package console
