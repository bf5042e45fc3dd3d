// Package ir provides the typed intermediate representation of compiled rule
// configuration for evrule.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. Rule sets are compiled from CUE into
// these types once at load and never mutated afterwards.
//
// Key design constraints:
//   - Optional configuration values use Opt[T], never sentinel values
//   - NO float types (HP thresholds are basis points)
//   - Scope and ExtendedScope are closed enumerations switched exhaustively
//   - All JSON tags use snake_case
package ir
