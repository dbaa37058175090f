// Package admin implements the operator tool for the alumnae API:
// applying migrations, creating or promoting administrators and pruning
// expired revoked tokens. Commands are parsed with urfave/cli/v2.
package admin
