// Package cli provides the interactive testmart account client.
//
// It wires configuration, an account API client (HTTP or gRPC) and a small
// REPL. Supported commands:
//   - register / login / logout
//   - confirm (paste the link from the confirmation email)
//   - delete (removes the logged-in account after a prompt)
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
