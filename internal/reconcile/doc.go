// Package reconcile classifies and merges differences between a local and a
// remote key-value secret set.
//
// Classification is a pure four-way partition relative to the local key set:
// keys only in the remote map are added, keys in both with differing values
// are modified, keys only in the local map are removed unless they match the
// operator-local naming convention (prefix "LOCAL_" or suffix "_LOCAL"), in
// which case they are local-only and always survive a merge. Unchanged keys
// are omitted entirely.
//
// The convention is purely name-based. A remote key literally named LOCAL_FOO
// is classified always-local once it lands in the local map and can never be
// removed by reconciliation. Known limitation, kept deliberately.
package reconcile
