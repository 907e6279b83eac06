// Package client talks to the gophauth HTTP API on behalf of the command-line
// client. Transport failures surface as ErrUnavailable; error envelopes from
// the server surface as *APIError.
package client
