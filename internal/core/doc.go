// Package core provides the value and type model shared by every other
// package: causetids, keywords, typed values, attributes, datoms and the
// structured error type.
//
// This package contains type definitions only. All other internal packages
// import core; core imports nothing internal. This keeps the value model the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - TypedValue is a closed (sealed) union; only the eight value types
//     declared here implement it
//   - every TypedValue is comparable with ==, so values can key maps
//   - keywords are NFC-normalized on construction so equal names compare equal
//   - each value type has a stable storage tag (see ValueType.Tag)
package core
