// Package config loads the rodeo.json client configuration: platform
// origin, environment, timeouts and state location. Environment
// variables override the file, and a missing file falls back to
// defaults so the CLI works out of the box against a local platform.
package config
