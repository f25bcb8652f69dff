// Package cmd implements the mstodo command line interface.
package cmd
