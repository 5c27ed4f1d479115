// Package bus implements the Message Bus: in-process pub/sub over named
// channels, and named-method RPC with a timeout.
//
// RPC uses a dedicated call table keyed by (app, method), not a reserved
// pub/sub channel. The pub/sub layer stays unidirectional.
package bus
