// Package client implements the generic HTTP client the Graph facade is built on. It wraps
// go-resty, applies request decorators (such as bearer-token injection) immediately before
// dispatch and turns non-2xx responses into *HTTPError values.
package client
