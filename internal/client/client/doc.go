// Package client talks to the testmart account service.
//
// Two transports implement AccountClient: HTTPClient speaks the JSON HTTP
// API and GRPCClient speaks the gRPC service. Both keep the access token
// returned by Login and attach it to Logout and DeleteAccount.
//
// Transport failures are reported as ErrUnavailable and rejected
// credentials as ErrUnauthorized. Other server refusals come back as
// *APIError carrying the server's messages.
package client
