// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Genocrowd Contributors

// Package auth provides user accounts for Genocrowd.
//
// # Domain Types
//
//   - User - an account record; Role is derived from IsAdmin
//   - ID - the portable identifier of a user (24 hex characters)
//   - Subject - the authenticated caller, passed explicitly to mutations
//
// # Services
//
//   - Validator - registration rules, all evaluated together
//   - Resolver - login string to user, username before email
//   - Service - Register, Authenticate, UpdateProfile, UpdatePassword
//   - Directory - admin listing and the admin/blocked toggles
//
// Expected failures (bad input, wrong password, unknown login) are returned
// as a Result with Error set. Go errors are reserved for store faults, which
// repositories report with the STORE_UNAVAILABLE code.
//
// Storage lives in the mongodb and postgres subpackages; both implement
// UserRepository.
package auth
