package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/openclerk/directory/modules/directory/domain/board"
	"github.com/openclerk/directory/modules/directory/domain/department"
	"github.com/openclerk/directory/modules/directory/domain/employee"
	"github.com/openclerk/directory/modules/directory/services"
	"github.com/openclerk/directory/pkg/httpapi"
)

type DirectoryAPIController struct {
	directory *services.DirectoryService
	staff     *services.StaffService
	slugs     *services.SlugService
	apiPrefix string
}

func NewDirectoryAPIController(
	directory *services.DirectoryService,
	staff *services.StaffService,
	slugs *services.SlugService,
) *DirectoryAPIController {
	return &DirectoryAPIController{
		directory: directory,
		staff:     staff,
		slugs:     slugs,
		apiPrefix: "/api/v1",
	}
}

func (c *DirectoryAPIController) Key() string {
	return c.apiPrefix
}

func (c *DirectoryAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()

	api.HandleFunc("/resolve/{slug}", c.Resolve).Methods(http.MethodGet)
	api.HandleFunc("/departments", c.ListRootDepartments).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id}", c.GetDepartment).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id}/children", c.GetChildDepartments).Methods(http.MethodGet)
	api.HandleFunc("/departments/{id}/staff", c.GetDepartmentStaff).Methods(http.MethodGet)
	api.HandleFunc("/boards/{id}", c.GetBoard).Methods(http.MethodGet)
}

type departmentResponse struct {
	ID       int    `json:"id"`
	RecordID string `json:"recordId"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	ParentID *int   `json:"parentId,omitempty"`
	LogoURL  string `json:"logoUrl,omitempty"`
}

func toDepartmentResponse(d department.Department) departmentResponse {
	resp := departmentResponse{
		ID:       d.ID,
		RecordID: d.RecordID,
		Name:     d.Name,
		Email:    d.Email,
	}
	if d.HasParent {
		parent := d.ParentID
		resp.ParentID = &parent
	}
	if d.HasLogo {
		resp.LogoURL = d.Logo.URL
	}
	return resp
}

type employeeResponse struct {
	ID       int    `json:"id"`
	RecordID string `json:"recordId"`
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Email    string `json:"email,omitempty"`
	Public   bool   `json:"public"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

func toEmployeeResponse(e employee.Employee) employeeResponse {
	resp := employeeResponse{
		ID:       e.ID,
		RecordID: e.RecordID,
		Name:     e.Name,
		Title:    e.Title,
		Email:    e.Email,
		Public:   e.Public,
	}
	if e.HasPhoto {
		resp.PhotoURL = e.Photo.URL
	}
	return resp
}

type boardMemberResponse struct {
	RecordID     string `json:"recordId"`
	Name         string `json:"name"`
	Title        string `json:"title,omitempty"`
	DisplayOrder int    `json:"displayOrder"`
}

type boardResponse struct {
	ID       int                   `json:"id"`
	RecordID string                `json:"recordId"`
	Name     string                `json:"name"`
	Members  []boardMemberResponse `json:"members"`
}

func toBoardResponse(b board.Board, members []board.Member) boardResponse {
	resp := boardResponse{
		ID:       b.ID,
		RecordID: b.RecordID,
		Name:     b.Name,
		Members:  make([]boardMemberResponse, 0, len(members)),
	}
	for _, m := range members {
		resp.Members = append(resp.Members, boardMemberResponse{
			RecordID:     m.RecordID,
			Name:         m.Name,
			Title:        m.Title,
			DisplayOrder: m.DisplayOrder,
		})
	}
	return resp
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (c *DirectoryAPIController) Resolve(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	entry, ok := c.slugs.Resolve(r.Context(), slug)
	if !ok {
		_ = httpapi.UnknownSlug().Write(w)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, entry)
}

func (c *DirectoryAPIController) ListRootDepartments(w http.ResponseWriter, r *http.Request) {
	roots := c.directory.RootDepartments(r.Context())
	out := make([]departmentResponse, 0, len(roots))
	for _, d := range roots {
		out = append(out, toDepartmentResponse(d))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *DirectoryAPIController) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.InvalidID("department").Write(w)
		return
	}
	d, found := c.directory.DepartmentByID(r.Context(), id)
	if !found {
		_ = httpapi.NotFound("department").Write(w)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toDepartmentResponse(d))
}

func (c *DirectoryAPIController) GetChildDepartments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.InvalidID("department").Write(w)
		return
	}
	children := c.directory.ChildDepartments(r.Context(), id)
	out := make([]departmentResponse, 0, len(children))
	for _, d := range children {
		out = append(out, toDepartmentResponse(d))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *DirectoryAPIController) GetDepartmentStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.InvalidID("department").Write(w)
		return
	}
	d, found := c.directory.DepartmentByID(r.Context(), id)
	if !found {
		_ = httpapi.NotFound("department").Write(w)
		return
	}
	// Non-public staff are withheld unless explicitly requested.
	publicOnly := r.URL.Query().Get("public") != "0"
	staff := c.staff.DepartmentStaff(r.Context(), d, publicOnly)
	out := make([]employeeResponse, 0, len(staff))
	for _, e := range staff {
		out = append(out, toEmployeeResponse(e))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *DirectoryAPIController) GetBoard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		_ = httpapi.InvalidID("board").Write(w)
		return
	}
	b, found := c.directory.BoardByID(r.Context(), id)
	if !found {
		_ = httpapi.NotFound("board").Write(w)
		return
	}
	members := c.staff.BoardMembers(r.Context(), b)
	_ = httpapi.WriteJSON(w, http.StatusOK, toBoardResponse(b, members))
}
