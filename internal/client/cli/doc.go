// Package cli provides the gophauth command-line client.
//
// Commands:
//   - register [username]: create an account
//   - login [username]: print a bearer token for the account
//   - profile: show the account behind a token (--token or GOPHAUTH_TOKEN)
//
// Prompts go to stderr so that `login` output can be captured by scripts.
// Passwords are read from the terminal without echo, or as a line from
// stdin when it is not a terminal.
package cli
