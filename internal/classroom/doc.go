// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

/*
Package classroom is the call surface over the external classroom platform.

It contains no business logic. The package provides:

  - Client: a thin HTTP client for the platform's REST API (list/get
    courses, list coursework, submission state, profile) with per-call
    timeouts, outbound pacing, and bearer credentials supplied by a
    CredentialSource collaborator.
  - RemoteError: the closed failure taxonomy (transient / permanent /
    auth / rate-limited) every raw transport or HTTP failure is mapped
    into before anything upstream sees it.
  - RetryPolicy: bounded exponential-backoff retry around any client
    call, retrying only classifications that can heal on their own.
  - BreakerClient: a circuit-breaker wrapper preventing cascading
    failures when the platform is down or slow.

Upstream packages (sync, query, snapshot) depend on ClientAPI, never on
the concrete Client, so tests substitute fakes freely.
*/
package classroom
