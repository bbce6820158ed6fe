package services

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/openclerk/directory/pkg/kvstore"
)

// Rejection reasons. The HTTP edge collapses all of these into one
// generic client message; the distinction exists for logs and tests.
var (
	ErrValidation  = errors.New("contact: invalid submission context")
	ErrRateLimited = errors.New("contact: rate limit exceeded")
	ErrNoRecipient = errors.New("contact: no routable recipient")
)

const rateLimitKeyPrefix = "contact:rl:"

// Submission is a verified inbound contact request: the entity context
// bound to the page that rendered the form, plus requester identity.
type Submission struct {
	EntityType  EntityType
	EntityID    int
	PageID      string
	RequesterIP string
}

// Routing is the accept decision: who receives the message and what audit
// headers the mail collaborator attaches. This service never sends mail.
type Routing struct {
	Recipient    string
	DisplayName  string
	AuditHeaders map[string]string
}

type ContactServiceConfig struct {
	Directory  *DirectoryService
	Staff      *StaffService
	Counters   kvstore.Store
	RateMax    int64
	RateWindow time.Duration
	Logger     *logrus.Logger
}

type ContactService struct {
	directory  *DirectoryService
	staff      *StaffService
	counters   kvstore.Store
	rateMax    int64
	rateWindow time.Duration
	validate   *validator.Validate
	logger     *logrus.Logger
}

func NewContactService(config ContactServiceConfig) *ContactService {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ContactService{
		directory:  config.Directory,
		staff:      config.Staff,
		counters:   config.Counters,
		rateMax:    config.RateMax,
		rateWindow: config.RateWindow,
		validate:   validator.New(),
		logger:     logger,
	}
}

// RouteSubmission validates the entity context, applies the per-IP
// sliding window, resolves the recipient and returns the routing
// decision.
func (s *ContactService) RouteSubmission(ctx context.Context, sub Submission) (Routing, error) {
	if sub.EntityID <= 0 {
		return Routing{}, ErrValidation
	}
	if sub.EntityType != EntityEmployee && sub.EntityType != EntityDepartment {
		return Routing{}, ErrValidation
	}

	if err := s.checkRate(ctx, sub.RequesterIP); err != nil {
		return Routing{}, err
	}

	recipient, displayName, ok := s.resolveRecipient(ctx, sub)
	if !ok {
		return Routing{}, ErrNoRecipient
	}
	if err := s.validate.Var(recipient, "required,email"); err != nil {
		s.logger.WithFields(logrus.Fields{
			"type": sub.EntityType,
			"id":   sub.EntityID,
		}).Warn("contact: resolved recipient failed email validation")
		return Routing{}, ErrNoRecipient
	}

	return Routing{
		Recipient:   recipient,
		DisplayName: displayName,
		AuditHeaders: map[string]string{
			"X-Contact-Type": string(sub.EntityType),
			"X-Contact-ID":   strconv.Itoa(sub.EntityID),
			"X-Origin-Page":  sub.PageID,
		},
	}, nil
}

// checkRate applies the per-IP sliding window. The counter is read before
// it is incremented: rejected attempts leave it untouched, so continuous
// retries cannot extend a lockout past the window of the last accepted
// request. The read-increment pair is not atomic; a concurrent burst can
// overshoot by the number of in-flight requests, which an abuse brake
// tolerates. A broken counter store fails open: losing rate limiting
// beats losing contact routing.
func (s *ContactService) checkRate(ctx context.Context, ip string) error {
	if ip == "" {
		return ErrValidation
	}
	key := rateLimitKeyPrefix + ip
	raw, found, err := s.counters.Get(ctx, key)
	if err != nil {
		s.logger.WithError(err).Warn("contact: rate counter unavailable, allowing request")
		return nil
	}
	if found {
		count, _ := strconv.ParseInt(raw, 10, 64)
		if count >= s.rateMax {
			return ErrRateLimited
		}
	}
	if _, err := s.counters.Increment(ctx, key, s.rateWindow); err != nil {
		s.logger.WithError(err).Warn("contact: rate counter unavailable, allowing request")
	}
	return nil
}

func (s *ContactService) resolveRecipient(ctx context.Context, sub Submission) (recipient, displayName string, ok bool) {
	switch sub.EntityType {
	case EntityEmployee:
		e, found := s.directory.EmployeeByID(ctx, sub.EntityID)
		if !found {
			return "", "", false
		}
		return e.Email, e.Name, true
	case EntityDepartment:
		d, found := s.directory.DepartmentByID(ctx, sub.EntityID)
		if !found {
			return "", "", false
		}
		if d.Email != "" {
			return d.Email, d.Name, true
		}
		// No departmental inbox: route to the first public staff member.
		for _, e := range s.staff.DepartmentStaff(ctx, d, true) {
			if e.Email != "" {
				return e.Email, d.Name, true
			}
		}
		return "", "", false
	default:
		return "", "", false
	}
}
