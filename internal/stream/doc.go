// Package stream frames scan events for delivery to a caller.
//
// Two transports carry the same event sequence. Server-sent events write
//
//	event: <name>
//	data: <json>
//
// followed by a blank line, flushed after every event. The WebSocket
// transport sends one text frame per event shaped {"event": name, "data": payload}.
// Every payload is a JSON object stamped with request_id and a monotonically
// non-decreasing ts in Unix milliseconds.
//
// The consumer side (ReadSSE, DialWS) is used by the scantest CLI.
package stream
