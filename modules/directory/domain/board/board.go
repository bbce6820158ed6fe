package board

import (
	"sort"
	"strings"

	"github.com/openclerk/directory/modules/directory/domain/record"
)

// Field names in the upstream Boards and Board Members tables.
const (
	FieldID      = "Board ID"
	FieldName    = "Board Name"
	FieldMembers = "Board Members"

	MemberFieldName  = "Name"
	MemberFieldTitle = "Title"
	MemberFieldEmail = "Email"
	MemberFieldOrder = "Display Order"
)

// DefaultDisplayOrder sorts members without an explicit position last.
const DefaultDisplayOrder = 999

type Board struct {
	RecordID string
	ID       int
	Name     string
	// MemberRecordIDs are opaque record ids, not numeric employee ids.
	// Board membership is record-id keyed; department membership is not.
	MemberRecordIDs []string
}

func FromRecord(rec record.Record) Board {
	b := Board{RecordID: rec.ID}
	b.ID, _ = rec.Fields.Int(FieldID)
	b.Name, _ = rec.Fields.String(FieldName)
	b.MemberRecordIDs, _ = rec.Fields.StringList(FieldMembers)
	return b
}

type Member struct {
	RecordID     string
	Name         string
	Title        string
	Email        string
	DisplayOrder int
}

func MemberFromRecord(rec record.Record) Member {
	m := Member{RecordID: rec.ID, DisplayOrder: DefaultDisplayOrder}
	m.Name, _ = rec.Fields.String(MemberFieldName)
	m.Title, _ = rec.Fields.String(MemberFieldTitle)
	m.Email, _ = rec.Fields.String(MemberFieldEmail)
	if order, ok := rec.Fields.Int(MemberFieldOrder); ok {
		m.DisplayOrder = order
	}
	return m
}

func MembersFromRecords(recs []record.Record) []Member {
	out := make([]Member, 0, len(recs))
	for _, rec := range recs {
		out = append(out, MemberFromRecord(rec))
	}
	return out
}

// SortMembers orders by Display Order ascending, ties broken by
// case-insensitive name. Total: two members only compare equal when both
// order and name do.
func SortMembers(members []Member) {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].DisplayOrder != members[j].DisplayOrder {
			return members[i].DisplayOrder < members[j].DisplayOrder
		}
		return strings.ToLower(members[i].Name) < strings.ToLower(members[j].Name)
	})
}
