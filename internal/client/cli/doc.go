// Package cli implements the ideforge command-line client.
//
// Commands are built with cobra. The session token from signup or login is
// kept in a local SQLite store (see package session) and sent as a bearer
// token on later invocations, so each command is a separate, short-lived
// process.
//
//	ideforge signup
//	ideforge login --email a@b.com
//	ideforge projects create "Todo app" "A small todo list in Go"
//	ideforge projects provision <id>
//	ideforge projects list
package cli
