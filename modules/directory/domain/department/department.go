package department

import (
	"strconv"
	"strings"

	"github.com/openclerk/directory/modules/directory/domain/record"
)

// Field names in the upstream Departments table.
const (
	FieldID          = "Department ID"
	FieldParentID    = "Parent ID"
	FieldName        = "Department Name"
	FieldEmail       = "Email"
	FieldEmployeeIDs = "Employee IDs"
	FieldStaff       = "Staff"
	FieldLogo        = "Logo"
)

// Department is a read-only projection of one upstream department row.
// ID and ParentID are the stable numeric identifiers, distinct from the
// opaque RecordID.
type Department struct {
	RecordID  string
	ID        int
	ParentID  int
	HasParent bool
	Name      string
	Email     string
	Logo      record.Attachment
	HasLogo   bool

	employeeIDs    []int
	hasEmployeeIDs bool
	staffField     string
}

func FromRecord(rec record.Record) Department {
	d := Department{RecordID: rec.ID}
	d.ID, _ = rec.Fields.Int(FieldID)
	d.ParentID, d.HasParent = rec.Fields.Int(FieldParentID)
	d.Name, _ = rec.Fields.String(FieldName)
	d.Email, _ = rec.Fields.String(FieldEmail)
	d.Logo, d.HasLogo = record.DecodeAttachment(rec.Fields, FieldLogo)
	d.employeeIDs, d.hasEmployeeIDs = rec.Fields.IntList(FieldEmployeeIDs)
	d.staffField, _ = rec.Fields.String(FieldStaff)
	return d
}

func FromRecords(recs []record.Record) []Department {
	out := make([]Department, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromRecord(rec))
	}
	return out
}

// MemberIDs resolves the department's staff references. The structured
// list wins; the legacy comma-separated Staff field is the fallback.
// Neither present means an empty member set, not an error.
func (d Department) MemberIDs() []int {
	if d.hasEmployeeIDs && len(d.employeeIDs) > 0 {
		return d.employeeIDs
	}
	if d.staffField == "" {
		return nil
	}
	parts := strings.Split(d.staffField, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		if id, err := strconv.Atoi(trimmed); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
