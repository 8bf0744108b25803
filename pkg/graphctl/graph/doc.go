// Package graph is the Microsoft Graph facade used by graphctl: the signed-in user's
// profile, the newest inbox messages, sending mail and reading or replacing the profile
// photo. Every call goes through the authenticated client of a session.Session.
package graph
