// Package repl implements the interactive prompt of dioscript.
//
// Each line is evaluated in one [lang.Session], so variables assigned on
// one line are visible on the next. A line ending in an expression prints
// its value. Pressing Esc switches to command mode, where lines such as
// "vars" and "output html" control the session instead.
package repl
