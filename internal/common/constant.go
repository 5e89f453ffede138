// Package common contains shared constants and sentinel errors used across
// testmart components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound requests.
const AccessTokenHeaderName = "access_token"

// BearerScheme prefixes access tokens in the HTTP Authorization header.
const BearerScheme = "Bearer"

// PurposeConfirmEmail is the purpose bound into email confirmation tokens.
const PurposeConfirmEmail = "confirm-email"
