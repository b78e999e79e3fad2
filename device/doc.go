// Package device issues and parses signed device tokens. A device token names
// one browser (or CLI profile) so the gate can namespace its state; the id is
// a random UUID and carries no user identity.
//
// Tokens are HS256 JWTs. They are not credentials: losing one only resets the
// device to a fresh gate, and forging one requires the server secret.
package device
