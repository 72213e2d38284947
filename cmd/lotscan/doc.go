// Command lotscan is the operator CLI for the lotscan capture daemon:
// running it in the foreground, inspecting the audit log, and managing
// configuration.
package main
