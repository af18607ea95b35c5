package common

// AuthorizationHeaderName carries the access token as "Bearer <token>".
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "
