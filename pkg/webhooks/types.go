// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

// DirectoryIdentity is the payload Kratos posts after a successful
// registration flow.
type DirectoryIdentity struct {
	ID     string         `json:"id"`
	Traits IdentityTraits `json:"traits"`
}

type IdentityTraits struct {
	Email string `json:"email"`
}

// TokenHookResponse is the shape Hydra expects back from the token hook.
// Claims placed under access_token and id_token are merged into the
// issued tokens.
type TokenHookResponse struct {
	Session TokenHookSession `json:"session"`
}

type TokenHookSession struct {
	AccessToken map[string]interface{} `json:"access_token"`
	IDToken     map[string]interface{} `json:"id_token"`
}
