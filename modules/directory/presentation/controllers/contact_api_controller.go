package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/openclerk/directory/modules/directory/services"
	"github.com/openclerk/directory/pkg/httpapi"
	"github.com/openclerk/directory/pkg/middleware"
)

type ContactAPIController struct {
	contact      *services.ContactService
	realIPHeader string
	logger       *logrus.Logger
	apiPrefix    string
}

func NewContactAPIController(contact *services.ContactService, realIPHeader string, logger *logrus.Logger) *ContactAPIController {
	return &ContactAPIController{
		contact:      contact,
		realIPHeader: realIPHeader,
		logger:       logger,
		apiPrefix:    "/api/v1/contact",
	}
}

func (c *ContactAPIController) Key() string {
	return c.apiPrefix
}

func (c *ContactAPIController) Register(r *mux.Router) {
	r.HandleFunc(c.apiPrefix, c.Submit).Methods(http.MethodPost)
}

type contactSubmissionDTO struct {
	Type   string `json:"type"`
	ID     int    `json:"id"`
	PageID string `json:"pageId"`
}

// Submit accepts or rejects a contact submission. Every rejection reads
// the same to the client: which check failed is not leaked.
func (c *ContactAPIController) Submit(w http.ResponseWriter, r *http.Request) {
	var dto contactSubmissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		c.reject(w)
		return
	}

	routing, err := c.contact.RouteSubmission(r.Context(), services.Submission{
		EntityType:  services.EntityType(dto.Type),
		EntityID:    dto.ID,
		PageID:      dto.PageID,
		RequesterIP: middleware.RealIP(r, c.realIPHeader),
	})
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"type": dto.Type,
			"id":   dto.ID,
		}).Info("contact: submission rejected")
		c.reject(w)
		return
	}

	c.logger.WithFields(logrus.Fields{
		"type":      dto.Type,
		"id":        dto.ID,
		"recipient": routing.DisplayName,
	}).Info("contact: submission routed")
	_ = httpapi.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (c *ContactAPIController) reject(w http.ResponseWriter) {
	_ = httpapi.SubmissionRejected().Write(w)
}
