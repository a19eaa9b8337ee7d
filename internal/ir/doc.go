// Package ir provides the value types shared by every armstrong package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Attribute sets are sorted and duplicate-free, so equal sets have equal
//     slices and equal canonical keys
//   - Attribute names are NFC normalized at construction
//   - FD identity is (LHS, RHS); Version and Trivial are metadata
//   - Versions are logical counters threaded by the caller, never globals
package ir
