// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package classroom

import "context"

// StaticTokenSource hands out the same bearer token for every owner.
// Suitable for single-tenant deployments where the platform credential is
// provisioned out of band; multi-tenant setups plug in their own
// CredentialSource.
type StaticTokenSource struct {
	token string
}

// NewStaticTokenSource wraps a fixed token.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

// Token implements CredentialSource.
func (s *StaticTokenSource) Token(ctx context.Context, ownerID string) (string, error) {
	if s.token == "" {
		return "", &RemoteError{
			Kind:    KindAuth,
			Code:    CodeRemoteAuth,
			Message: "no platform credential configured",
		}
	}
	return s.token, nil
}
