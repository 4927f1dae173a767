// Package auth owns the token lifecycle against the authorization service.
//
// Two grant flows produce a TokenRecord: the device-code flow (BeginDeviceGrant
// + PollForToken) and the password grant (AuthenticateWithPassword). Records
// are persisted through the credential vault under a service key derived from
// the active environment, so development, staging and production sessions
// never collide.
//
// All failures carry a Kind from the closed taxonomy in errors.go. The one
// exception is IsAuthenticated, which never fails: internal errors are
// swallowed and reported as false so status checks cannot crash the caller.
package auth
