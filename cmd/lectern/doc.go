// Command lectern converts lecture recordings and assigned readings into
// markdown study notes, one class folder at a time.
package main
