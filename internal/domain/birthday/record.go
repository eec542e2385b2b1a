package birthday

import "time"

// Record is a single stored birthday.
type Record struct {
	SubjectName string    `json:"subject_name"`
	Date        Date      `json:"date"`
	AddedBy     string    `json:"added_by"`
	AddedAt     time.Time `json:"added_at"`
}

// Group is a shared birthday list for one conversation. Groups are created
// lazily on the first add issued with a group context and never deleted
// automatically.
type Group struct {
	GroupID     string            `json:"group_id"`
	DisplayName string            `json:"display_name"`
	Members     map[string]Record `json:"members"`
}

// Document is the full persisted state: every personal list keyed by owner id
// and every group keyed by group id. Within one scope the subject name is a
// unique key; inserting an existing name overwrites the prior record.
type Document struct {
	Personal map[string]map[string]Record `json:"personal"`
	Groups   map[string]Group             `json:"groups"`
}

func NewDocument() *Document {
	return &Document{
		Personal: make(map[string]map[string]Record),
		Groups:   make(map[string]Group),
	}
}

// EnsureInit replaces nil collections after deserialization so callers can
// index without nil checks.
func (d *Document) EnsureInit() {
	if d.Personal == nil {
		d.Personal = make(map[string]map[string]Record)
	}
	if d.Groups == nil {
		d.Groups = make(map[string]Group)
	}
	for id, g := range d.Groups {
		if g.Members == nil {
			g.Members = make(map[string]Record)
			d.Groups[id] = g
		}
	}
}

// PersonalList returns the owner's personal list, creating it if absent.
func (d *Document) PersonalList(ownerID string) map[string]Record {
	list, ok := d.Personal[ownerID]
	if !ok {
		list = make(map[string]Record)
		d.Personal[ownerID] = list
	}
	return list
}

// Clone returns a deep copy. Readers work against clones so scans never hold
// the store lock while doing network I/O.
func (d *Document) Clone() *Document {
	out := NewDocument()
	for owner, list := range d.Personal {
		cp := make(map[string]Record, len(list))
		for name, rec := range list {
			cp[name] = rec
		}
		out.Personal[owner] = cp
	}
	for id, g := range d.Groups {
		members := make(map[string]Record, len(g.Members))
		for name, rec := range g.Members {
			members[name] = rec
		}
		out.Groups[id] = Group{GroupID: g.GroupID, DisplayName: g.DisplayName, Members: members}
	}
	return out
}

// Counts reports the number of personal lists, groups, and total records.
func (d *Document) Counts() (personalLists, groups, records int) {
	personalLists = len(d.Personal)
	groups = len(d.Groups)
	for _, list := range d.Personal {
		records += len(list)
	}
	for _, g := range d.Groups {
		records += len(g.Members)
	}
	return personalLists, groups, records
}
