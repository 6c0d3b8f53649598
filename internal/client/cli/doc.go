// Package cli provides the interactive GemSpark command-line client.
//
// It wires configuration, the local state database, API services, and a
// REPL. Plain input lines are sent to the active chat and the reply is
// printed as it streams in; lines starting with "/" are commands:
//
//	/register /login /logout     accounts
//	/list /new [name] /use N     sessions ("sidebar")
//	/rename NAME /delete         the active session
//	/history /export             transcript of the active session
//	/help /exit
//
// A login is remembered between runs and resumed on start. A background
// watcher pings the server and shows online/offline in the prompt.
package cli
