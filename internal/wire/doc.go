// Package wire defines the message protocol between the live compiler and
// the compiler-process supervisor.
//
// Outbound messages ask the supervisor to compile, stop, or query a session.
// Inbound messages report what a session produced. Every inbound message
// carries the id of the session that produced it. The live compiler, not
// this package, decides whether that session is still current.
//
// On a byte stream the protocol is JSON lines: one JSON object per line with
// a "kind" discriminator. See Encoder and Decoder.
package wire
