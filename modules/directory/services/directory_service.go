package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/openclerk/directory/modules/directory/domain/board"
	"github.com/openclerk/directory/modules/directory/domain/department"
	"github.com/openclerk/directory/modules/directory/domain/employee"
	"github.com/openclerk/directory/modules/directory/domain/record"
	"github.com/openclerk/directory/modules/directory/infrastructure/upstream"
	"github.com/openclerk/directory/pkg/configuration"
)

// RecordSource is the cached fetch surface DirectoryService reads
// through. *persistence.RecordStore satisfies it.
type RecordSource interface {
	Fetch(ctx context.Context, q upstream.Query) []record.Record
}

type DirectoryServiceConfig struct {
	Source RecordSource
	Tables configuration.TableOptions
}

// DirectoryService is a typed façade over the record source. Every
// single-entity accessor treats "no match" as a plain boolean miss.
type DirectoryService struct {
	source RecordSource
	tables configuration.TableOptions
}

func NewDirectoryService(config DirectoryServiceConfig) *DirectoryService {
	return &DirectoryService{source: config.Source, tables: config.Tables}
}

// Filter formula constructors. These are the only place formula syntax
// lives; accessors never assemble formula strings inline.

func numberEquals(field string, id int) string {
	return fmt.Sprintf("{%s} = %d", field, id)
}

func recordIDEquals(recordID string) string {
	return fmt.Sprintf("RECORD_ID() = '%s'", recordID)
}

func isBlank(field string) string {
	return fmt.Sprintf("{%s} = BLANK()", field)
}

func anyOf(clauses []string) string {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return fmt.Sprintf("OR(%s)", strings.Join(clauses, ", "))
}

func (s *DirectoryService) fetchOne(ctx context.Context, table, formula string) (record.Record, bool) {
	records := s.source.Fetch(ctx, upstream.Query{
		Table:         table,
		FilterFormula: formula,
		MaxRecords:    1,
	})
	if len(records) == 0 {
		return record.Record{}, false
	}
	return records[0], true
}

func (s *DirectoryService) DepartmentByID(ctx context.Context, id int) (department.Department, bool) {
	rec, ok := s.fetchOne(ctx, s.tables.Departments, numberEquals(department.FieldID, id))
	if !ok {
		return department.Department{}, false
	}
	return department.FromRecord(rec), true
}

func (s *DirectoryService) DepartmentByRecordID(ctx context.Context, recordID string) (department.Department, bool) {
	rec, ok := s.fetchOne(ctx, s.tables.Departments, recordIDEquals(recordID))
	if !ok {
		return department.Department{}, false
	}
	return department.FromRecord(rec), true
}

// RootDepartments returns departments with no parent, i.e. the forest
// roots.
func (s *DirectoryService) RootDepartments(ctx context.Context) []department.Department {
	return department.FromRecords(s.source.Fetch(ctx, upstream.Query{
		Table:         s.tables.Departments,
		FilterFormula: isBlank(department.FieldParentID),
	}))
}

func (s *DirectoryService) ChildDepartments(ctx context.Context, parentID int) []department.Department {
	return department.FromRecords(s.source.Fetch(ctx, upstream.Query{
		Table:         s.tables.Departments,
		FilterFormula: numberEquals(department.FieldParentID, parentID),
	}))
}

func (s *DirectoryService) AllDepartments(ctx context.Context) []department.Department {
	return department.FromRecords(s.source.Fetch(ctx, upstream.Query{
		Table: s.tables.Departments,
	}))
}

func (s *DirectoryService) EmployeeByID(ctx context.Context, id int) (employee.Employee, bool) {
	rec, ok := s.fetchOne(ctx, s.tables.Staff, numberEquals(employee.FieldID, id))
	if !ok {
		return employee.Employee{}, false
	}
	return employee.FromRecord(rec), true
}

func (s *DirectoryService) EmployeeByRecordID(ctx context.Context, recordID string) (employee.Employee, bool) {
	rec, ok := s.fetchOne(ctx, s.tables.Staff, recordIDEquals(recordID))
	if !ok {
		return employee.Employee{}, false
	}
	return employee.FromRecord(rec), true
}

// AllEmployeeRecords returns raw staff records; callers that need the
// public-visibility pre-filter work on records, not projections.
func (s *DirectoryService) AllEmployeeRecords(ctx context.Context) []record.Record {
	return s.source.Fetch(ctx, upstream.Query{Table: s.tables.Staff})
}

// EmployeesByIDs fetches staff records by numeric employee id.
func (s *DirectoryService) EmployeesByIDs(ctx context.Context, ids []int) []record.Record {
	if len(ids) == 0 {
		return nil
	}
	clauses := make([]string, 0, len(ids))
	for _, id := range ids {
		clauses = append(clauses, numberEquals(employee.FieldID, id))
	}
	return s.source.Fetch(ctx, upstream.Query{
		Table:         s.tables.Staff,
		FilterFormula: anyOf(clauses),
	})
}

func (s *DirectoryService) BoardByID(ctx context.Context, id int) (board.Board, bool) {
	rec, ok := s.fetchOne(ctx, s.tables.Boards, numberEquals(board.FieldID, id))
	if !ok {
		return board.Board{}, false
	}
	return board.FromRecord(rec), true
}

func (s *DirectoryService) AllBoards(ctx context.Context) []board.Board {
	records := s.source.Fetch(ctx, upstream.Query{Table: s.tables.Boards})
	boards := make([]board.Board, 0, len(records))
	for _, rec := range records {
		boards = append(boards, board.FromRecord(rec))
	}
	return boards
}

// BoardMembersByRecordIDs fetches board-member rows by opaque record id.
// Boards reference members by record id, unlike department membership
// which is numeric; the asymmetry is upstream's, not ours.
func (s *DirectoryService) BoardMembersByRecordIDs(ctx context.Context, recordIDs []string) []record.Record {
	if len(recordIDs) == 0 {
		return nil
	}
	clauses := make([]string, 0, len(recordIDs))
	for _, recID := range recordIDs {
		clauses = append(clauses, recordIDEquals(recID))
	}
	return s.source.Fetch(ctx, upstream.Query{
		Table:         s.tables.BoardMembers,
		FilterFormula: anyOf(clauses),
	})
}
