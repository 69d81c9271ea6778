// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

// Package api is the HTTP surface of Coursebridge: a chi router serving
// JSON under /api/v1. Responses share one envelope with stable error
// codes; the owner identity rides in the X-Owner-ID header on every
// request. Handlers stay thin and delegate to the sync, query, and
// snapshot services.
package api
