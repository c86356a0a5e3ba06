// Package stream provides the live alert feed: a WebSocket connection
// to the platform's /api/stream/alerts endpoint that delivers detection
// alerts as they fire.
package stream
