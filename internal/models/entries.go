package models

// Add appends e and returns its index.
func (v *VaultData) Add(e VaultEntry) int {
	v.Entries = append(v.Entries, e)
	return len(v.Entries) - 1
}

// Get returns a pointer to the entry with the given id, or nil.
func (v *VaultData) Get(id string) *VaultEntry {
	for i := range v.Entries {
		if v.Entries[i].ID == id {
			return &v.Entries[i]
		}
	}
	return nil
}

// Edit applies fn to the entry with the given id and stamps UpdatedAt.
// It reports whether the entry was found.
func (v *VaultData) Edit(id string, updatedAt uint64, fn func(e *VaultEntry)) bool {
	e := v.Get(id)
	if e == nil {
		return false
	}
	fn(e)
	e.UpdatedAt = updatedAt
	return true
}

// Delete removes the entry with the given id, keeping the order of the rest.
// It reports whether the entry was found.
func (v *VaultData) Delete(id string) bool {
	for i := range v.Entries {
		if v.Entries[i].ID == id {
			v.Entries = append(v.Entries[:i], v.Entries[i+1:]...)
			return true
		}
	}
	return false
}
