// Package fetch retrieves remote ECMAScript modules over HTTPS.
//
// [Client.Get] performs a single GET for an https: [modref.Ref] and reports
// redirects instead of following them, so the caller can record each hop as
// a cache alias. Non-redirect responses must carry a JavaScript MIME type
// (text/javascript, application/javascript, text/ecmascript or
// application/ecmascript, any case, optional parameters); anything else is a
// CONTENT_TYPE error. Successful bodies come back with their [Integrity]
// string, "sha256-" followed by the base64 SHA-256 digest of the exact bytes.
package fetch
