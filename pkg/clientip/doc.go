// Package clientip resolves the address of the client behind an HTTP
// request. Proxy headers are consulted in the configured order before
// falling back to the connection's remote address.
package clientip
