// Package models defines the vault record types exchanged with callers.
package models

import "time"

// CurrentVersion is the schema version of VaultData.
const CurrentVersion uint32 = 1

// VaultEntry is one secret record.
type VaultEntry struct {
	// ID is the stable identifier assigned when the entry is created.
	ID string `json:"id"`
	// Title is the display name.
	Title string `json:"title"`
	// Username is the login name.
	Username string `json:"username"`
	// Password is the stored password.
	Password string `json:"password"`
	// TOTPSecret is the base32 one-time-code seed.
	TOTPSecret *string `json:"totpSecret"`
	// TOTPIssuer names the service issuing codes.
	TOTPIssuer *string `json:"totpIssuer"`
	// TOTPAccount names the account the codes belong to.
	TOTPAccount *string `json:"totpAccount"`
	// Tags are ordered labels; duplicates are permitted.
	Tags []string `json:"tags"`
	// Notes is free text.
	Notes *string `json:"notes"`
	// UpdatedAt is the last mutation time in milliseconds since the epoch.
	UpdatedAt uint64 `json:"updatedAt"`
}

// VaultData is the whole decrypted vault.
type VaultData struct {
	// Version is the schema version.
	Version uint32 `json:"version"`
	// Entries are kept in display order.
	Entries []VaultEntry `json:"entries"`
}

// NewVaultData returns an empty vault of the current version.
func NewVaultData() *VaultData {
	return &VaultData{Version: CurrentVersion, Entries: []VaultEntry{}}
}

// NowMillis returns t as milliseconds since the epoch.
func NowMillis(t time.Time) uint64 {
	return uint64(t.UnixMilli())
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
