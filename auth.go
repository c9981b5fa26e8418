package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/golang-jwt/jwt/v5"
)

const graphDefaultScope = "https://graph.microsoft.com/.default"

func int32Ptr(i int) *int32 {
	v := int32(i)
	return &v
}

// newCredential builds the token credential for the selected auth method.
// 'clientid' performs the OAuth2 client-credentials grant against the tenant's
// token endpoint; 'azidentity' reuses the operator's Azure CLI login session.
func newCredential(config Config) (azcore.TokenCredential, error) {
	switch config.AuthMethod {
	case "clientid":
		cred, err := azidentity.NewClientSecretCredential(config.TenantID, config.ClientID, config.ClientSecret, nil)
		if err != nil {
			return nil, &AuthError{Err: err}
		}
		return cred, nil
	case "azidentity":
		cred, err := azidentity.NewAzureCLICredential(nil)
		if err != nil {
			return nil, &AuthError{Err: err}
		}
		return cred, nil
	}
	return nil, &AuthError{Err: fmt.Errorf("unknown auth method: %s", config.AuthMethod)}
}

// acquireToken requests a bearer token for the Graph default scope. Invalid
// credentials and unreachable token endpoints both surface here, before any
// directory data is fetched or any output file touched.
func acquireToken(ctx context.Context, cred azcore.TokenCredential) (azcore.AccessToken, error) {
	token, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{graphDefaultScope}})
	if err != nil {
		return azcore.AccessToken{}, &AuthError{Err: err}
	}
	if token.Token == "" {
		return azcore.AccessToken{}, &AuthError{Err: errors.New("token endpoint returned an empty token")}
	}
	return token, nil
}

// tenantIDFromToken extracts the tenant ID claim from a bearer token.
// Note: We use ParseUnverified because we don't need to validate the token's
// signature. We are only extracting the tenant ID claim ("tid") from a token
// that we have just received directly from Entra ID, which we trust as the
// source. This is NOT safe for authenticating incoming requests.
func tenantIDFromToken(raw string) (string, error) {
	parser := new(jwt.Parser)
	claims := jwt.MapClaims{}
	_, _, err := parser.ParseUnverified(raw, claims)
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	tid, ok := claims["tid"].(string)
	if !ok {
		return "", errors.New("could not find 'tid' claim in token")
	}
	return tid, nil
}

// runHealthCheck acquires a token and reports the tenant it belongs to,
// without fetching any directory data.
func runHealthCheck(ctx context.Context, cred azcore.TokenCredential) error {
	token, err := acquireToken(ctx, cred)
	if err != nil {
		return err
	}
	tid, err := tenantIDFromToken(token.Token)
	if err != nil {
		return err
	}
	log.Printf("Authentication OK. Tenant: %s, token expires: %s", tid, token.ExpiresOn.UTC().Format("2006-01-02 15:04:05 MST"))
	return nil
}
