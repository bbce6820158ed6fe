package employee

import "github.com/openclerk/directory/modules/directory/domain/record"

// Field names in the upstream Staff table.
const (
	FieldID          = "Employee ID"
	FieldName        = "Name"
	FieldTitle       = "Title"
	FieldEmail       = "Email"
	FieldPublic      = "Public"
	FieldDepartments = "Departments"
	FieldPhoto       = "Photo"
)

type Employee struct {
	RecordID string
	ID       int
	Name     string
	Title    string
	Email    string
	// Public is the normalized visibility predicate; see record.DecodePublic.
	Public   bool
	Photo    record.Attachment
	HasPhoto bool
	// DepartmentRecordIDs are opaque record ids linking back to departments.
	DepartmentRecordIDs []string
}

func FromRecord(rec record.Record) Employee {
	e := Employee{RecordID: rec.ID}
	e.ID, _ = rec.Fields.Int(FieldID)
	e.Name, _ = rec.Fields.String(FieldName)
	e.Title, _ = rec.Fields.String(FieldTitle)
	e.Email, _ = rec.Fields.String(FieldEmail)
	e.Public, _ = record.DecodePublic(rec.Fields, FieldPublic)
	e.Photo, e.HasPhoto = record.DecodeAttachment(rec.Fields, FieldPhoto)
	e.DepartmentRecordIDs, _ = rec.Fields.StringList(FieldDepartments)
	return e
}

func FromRecords(recs []record.Record) []Employee {
	out := make([]Employee, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromRecord(rec))
	}
	return out
}
