package config

import (
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-d string     database URI
//	-s string     token signing secret
//	-t duration   token lifetime (e.g., "15m")
//	-p string     password hasher, argon2id or bcrypt
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so -c and -env-file handled by other layers do not clash.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseURI, "d", config.DatabaseURI, "database URI")
	fs.StringVar(&config.TokenSecret, "s", config.TokenSecret, "token signing secret")
	fs.DurationVar(&config.TokenTTL, "t", config.TokenTTL, "token lifetime")
	fs.StringVar(&config.PasswordHasher, "p", config.PasswordHasher, "password hasher (argon2id|bcrypt)")

	return fs.Parse(args)
}
