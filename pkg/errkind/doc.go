// Package errkind defines the error taxonomy shared by handlers, upstream
// clients and the response renderer. Kinds are sentinel errors matched with
// errors.Is; they decide whether a failure is rendered as a "% Error:" line,
// a positive not-found confirmation, or a remediation hint.
package errkind
