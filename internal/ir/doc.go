// Package ir provides the value and trace representation shared by every
// harness package.
//
// This package contains type definitions and pure functions only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - IRValue is sealed; device calls convert script values at the boundary
//   - Args keep declared parameter order, never map order
//   - Sanitize never fails and never leaks memory addresses
//   - Equality is defined on canonical JSON, so 10 and 10.0 compare equal
package ir
