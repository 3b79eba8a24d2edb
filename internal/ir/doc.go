// Package ir provides the value and record types shared by every other
// package in reassign.
//
// This package contains type definitions and pure conversions only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value is a sealed interface: Null, String, Int, Bool, List, Object
//   - NO float types: numbers are int64, integral floats from generic
//     decoders are narrowed, fractional ones are rejected
//   - Object keys are compared after NFC normalization
//   - Record identity is an int64 primary key assigned by the store
package ir
