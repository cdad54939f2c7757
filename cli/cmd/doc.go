// Package cmd implements the dioscript subcommands: eval, ast, fmt and
// init.
//
// Commands read their scripts from the files named on the command line, or
// from standard input, and take their interpreter limits from options
// stored in the context by [WithOptions].
package cmd

// ConfigIdentifier is the kong variable holding the path of the
// configuration script.
const ConfigIdentifier = "config"
