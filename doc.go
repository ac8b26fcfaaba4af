// Package dirauth provides password-based mutual authentication for a
// directory service. Registration and login run an OPRF-based PAKE in two
// round trips each; a successful login yields a shared session key and a
// signed access/refresh token pair. The server stores only an opaque
// credential record per user, never the password or anything offline
// attackable without paying the key stretching cost.
//
// The protocol engine lives in the pake package and can be used on its own;
// this package adds the exchange session store, credential persistence
// boundary, and token issuance around it.
package dirauth
