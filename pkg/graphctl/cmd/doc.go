// Package cmd implements the graphctl command tree.
//
// Every command that talks to Microsoft Graph builds one session.Session from the loaded
// configuration, signs in with the device code flow on first use and reuses the token for
// the rest of the process.
package cmd
