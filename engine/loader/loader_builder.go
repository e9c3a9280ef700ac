package loader

import "net/http"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithProgress registers a callback receiving byte-level transfer progress.
// The callback runs on the loading goroutine.
//
// Parameters:
//   - fn: the progress callback
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithProgress(fn func(Progress)) LoaderBuilderOption {
	return func(l *loader) {
		l.onProgress = fn
	}
}

// WithHTTPClient sets the client used for http(s) references passed to LoadRef.
//
// Parameters:
//   - client: the HTTP client
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithHTTPClient(client *http.Client) LoaderBuilderOption {
	return func(l *loader) {
		l.resolver = func(ref string) Source { return ParseSource(ref, client) }
	}
}

// WithResultBuffer sets how many undelivered results may queue before the oldest is replaced.
//
// Parameters:
//   - n: the channel capacity, at least 1
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithResultBuffer(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.results = make(chan Result, max(1, n))
	}
}
