// Package logging provides file-based JSON logging with rotation for CodeSeeker.
// Logs are written to ~/.codeseeker/logs/server.log.
// When the --debug flag is set, debug-level logs go to that file and to stderr.
//
// The index and search commands write info-level logs to that file even
// without --debug; they do not write those logs to stderr.
package logging
