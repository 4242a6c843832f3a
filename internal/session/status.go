package session

import "time"

// InstanceStatus is the per-instance view surfaced by the `status` command.
type InstanceStatus struct {
	DescriptorID   string    `json:"descriptorId"`
	LanguageID     string    `json:"languageId"`
	Root           string    `json:"root"`
	ModulePath     string    `json:"modulePath,omitempty"`
	State          string    `json:"state"`
	StartedAt      time.Time `json:"startedAt"`
	LastActivity   time.Time `json:"lastActivity"`
	OpenDocuments  int64     `json:"openDocuments"`
	MemoryRSSBytes uint64    `json:"memoryRssBytes,omitempty"`
	HasMemSample   bool      `json:"-"`
}

// StatusSnapshot reports every known instance's state, sampling memory from
// /proc where available (§3 "memory/CPU sample"; Linux-only, best-effort).
func (m *Manager) StatusSnapshot() []InstanceStatus {
	instances := m.ListInstances()
	out := make([]InstanceStatus, 0, len(instances))
	for _, inst := range instances {
		st := InstanceStatus{
			DescriptorID:  inst.Descriptor.ID,
			LanguageID:    inst.Descriptor.LanguageID,
			Root:          inst.Root,
			ModulePath:    inst.ModulePath,
			State:         inst.Client.State().String(),
			StartedAt:     inst.StartedAt,
			LastActivity:  inst.LastActivity(),
			OpenDocuments: inst.OpenDocumentCount(),
		}
		if rss, ok := sampleRSS(inst.Client.Pid()); ok {
			st.MemoryRSSBytes = rss
			st.HasMemSample = true
		}
		out = append(out, st)
	}
	return out
}

// ActiveDescriptorIDs returns the descriptor id of every Ready instance, for
// the `statusline` command (§6 "space-separated active server ids").
func (m *Manager) ActiveDescriptorIDs() []string {
	instances := m.ListInstances()
	out := make([]string, 0, len(instances))
	for _, inst := range instances {
		if inst.Ready() {
			out = append(out, inst.Descriptor.ID)
		}
	}
	return out
}
