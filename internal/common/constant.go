package common

// AuthorizationHeaderName carries the bearer token on profile requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the authorization scheme prefix expected before a token.
const BearerScheme = "Bearer"
