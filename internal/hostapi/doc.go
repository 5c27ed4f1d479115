// Package hostapi is a minimal demo host surface standing in for the host
// navigation shell, treated as an external collaborator the kernel never
// owns. It exposes
// an HTTP API (discover/register/load/activate/suspend/unload, and an
// endpoint to emit a host lifecycle event into the Hook Router) plus a
// WebSocket stream that forwards façade-originated toasts and prompt
// context injections out to a connected shell. It deliberately contains no
// lifecycle or permission logic of its own: every request is a thin
// wrapper over internal/kernel and internal/facade.
package hostapi
