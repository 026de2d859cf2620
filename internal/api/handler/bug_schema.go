package handler

import "github.com/mern-bugtracker/bug-tracker/internal/core/domain"

// bugRequest is the JSON body of POST and PUT /api/bugs. Fields are left
// unvalidated here; the domain validator owns the rules.
type bugRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Status      string  `json:"status"`
	Assignee    *string `json:"assignee"`
	CreatedBy   string  `json:"createdBy"`
}

func (r bugRequest) toInput() domain.BugInput {
	in := domain.BugInput{
		Title:       r.Title,
		Description: r.Description,
		Severity:    r.Severity,
		Status:      r.Status,
		CreatedBy:   r.CreatedBy,
	}
	if r.Assignee != nil {
		in.Assignee = *r.Assignee
	}
	return in
}

type bugListResponse struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Data    []*domain.Bug `json:"data"`
}

type bugResponse struct {
	Success bool        `json:"success"`
	Data    *domain.Bug `json:"data"`
}

type bugDeletedResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    *domain.Bug `json:"data"`
}

type activityListResponse struct {
	Success bool                  `json:"success"`
	Count   int                   `json:"count"`
	Data    []*domain.BugActivity `json:"data"`
}
