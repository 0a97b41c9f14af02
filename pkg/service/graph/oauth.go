package graph

import (
	"context"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2"
)

// AuthCodeURL builds the Microsoft consent URL for the authorization-code
// flow. prompt=consent forces re-consent so a refresh token is always
// issued.
func (c *client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("response_mode", "query"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange swaps the authorization code for tokens and extracts the account
// identity from the id_token claims.
func (c *client) Exchange(ctx context.Context, code string) (*oauth2.Token, *Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to exchange authorization code")
	}

	identity, err := identityFromIDToken(token)
	if err != nil {
		return nil, nil, err
	}

	return token, identity, nil
}

// Refresh exchanges the refresh token for a new access token. Microsoft may
// rotate the refresh token; the returned token carries the rotated value
// when it does.
func (c *client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, goerr.Wrap(ErrUnauthorized, "no refresh token available")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	source := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to refresh access token")
	}

	return token, nil
}

// identityFromIDToken pulls the stable object ID and the sign-in address
// from the id_token. The token signature is verified by the token endpoint
// exchange itself; claims are parsed without re-verification.
func identityFromIDToken(token *oauth2.Token) (*Identity, error) {
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, goerr.New("token response missing id_token")
	}

	claims, err := jwt.ParseInsecure([]byte(raw))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse id_token")
	}

	identity := &Identity{}
	if oid, ok := claims.Get("oid"); ok {
		if s, ok := oid.(string); ok {
			identity.MicrosoftID = s
		}
	}
	if email, ok := claims.Get("preferred_username"); ok {
		if s, ok := email.(string); ok {
			identity.Email = s
		}
	}
	if identity.Email == "" {
		if email, ok := claims.Get("email"); ok {
			if s, ok := email.(string); ok {
				identity.Email = s
			}
		}
	}

	if identity.MicrosoftID == "" {
		return nil, goerr.New("id_token missing oid claim")
	}

	return identity, nil
}
