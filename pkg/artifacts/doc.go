// Package artifacts resolves sample artifact references from the API
// into bytes, reading from the platform's S3-compatible object storage.
package artifacts
