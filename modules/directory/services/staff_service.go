package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/openclerk/directory/modules/directory/domain/board"
	"github.com/openclerk/directory/modules/directory/domain/department"
	"github.com/openclerk/directory/modules/directory/domain/employee"
	"github.com/openclerk/directory/modules/directory/domain/record"
)

type StaffServiceConfig struct {
	Directory *DirectoryService
	Logger    *logrus.Logger
}

// StaffService resolves membership references into member records and
// owns the public-visibility predicate.
type StaffService struct {
	directory *DirectoryService
	logger    *logrus.Logger
}

func NewStaffService(config StaffServiceConfig) *StaffService {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &StaffService{directory: config.Directory, logger: logger}
}

// IsPublic reports whether the staff record is publicly visible.
// Unrecognized encodings are treated as private and logged once per
// sighting; upstream occasionally grows new field types.
func (s *StaffService) IsPublic(rec record.Record) bool {
	public, recognized := record.DecodePublic(rec.Fields, employee.FieldPublic)
	if !recognized {
		s.logger.WithFields(logrus.Fields{
			"record": rec.ID,
			"field":  employee.FieldPublic,
		}).Warn("staff: unexpected encoding for visibility field, treating as private")
	}
	return public
}

// FilterPublic keeps only publicly visible records, preserving order.
// Idempotent: filtering a filtered set changes nothing.
func (s *StaffService) FilterPublic(records []record.Record) []record.Record {
	out := make([]record.Record, 0, len(records))
	for _, rec := range records {
		if s.IsPublic(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// DepartmentStaff resolves a department's member set. An empty member
// reference yields an empty result, not an error.
func (s *StaffService) DepartmentStaff(ctx context.Context, dept department.Department, publicOnly bool) []employee.Employee {
	ids := dept.MemberIDs()
	if len(ids) == 0 {
		return nil
	}
	records := s.directory.EmployeesByIDs(ctx, ids)
	if publicOnly {
		records = s.FilterPublic(records)
	}
	return employee.FromRecords(records)
}

// BoardMembers resolves and orders a board's member set.
func (s *StaffService) BoardMembers(ctx context.Context, b board.Board) []board.Member {
	if len(b.MemberRecordIDs) == 0 {
		return nil
	}
	records := s.directory.BoardMembersByRecordIDs(ctx, b.MemberRecordIDs)
	members := board.MembersFromRecords(records)
	board.SortMembers(members)
	return members
}
