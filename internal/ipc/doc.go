// Package ipc carries daemon control between the CLI and a running sortify
// daemon over JSON-RPC on a Unix domain socket.
package ipc
