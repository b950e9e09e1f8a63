// Package helper provides test support for the store: observability spies
// that capture log, metric, and tracing calls, and fixture helpers that set
// up the games schema with known data.
package helper
