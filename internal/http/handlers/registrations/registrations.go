// Package registrations contains the HTTP handlers for the sign-up form.
//
// Handlers are built with the factory pattern: a function receives the
// dependencies once at startup and returns the http.HandlerFunc the router
// calls on every request.
//
//	r.Post("/api/registrations", registrations.New(coordinator))
package registrations

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/registration-api/internal/registration"
	"github.com/aanand-mishra/registration-api/internal/types"
	"github.com/aanand-mishra/registration-api/internal/utils/response"
)

// AlertCounts is returned when the department counts cannot be loaded.
const AlertCounts = "An error occurred while loading department counts."

// New handles POST /api/registrations.
//
// Request body (JSON):
//
//	{ "name": "Jo Lee", "reg_no": "R100", "email": "jo@x.com",
//	  "phone": "9876543210", "department": "TECHNICAL" }
//
// Responses:
//
//	201 Created              the stored student under "data"
//	400 Bad Request          empty or malformed body
//	409 Conflict             department full, or reg_no / email taken ("fields")
//	422 Unprocessable Entity validation errors ("fields")
//	500 Internal             store failure, generic message under "error"
func New(c *registration.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft types.Draft

		err := json.NewDecoder(r.Body).Decode(&draft)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		slog.Info("registration submitted", slog.String("department", draft.Department))

		// One form per request: the request is the form session.
		form := registration.NewFormWithDraft(draft)

		out, err := c.Submit(r.Context(), form)
		if err != nil {
			response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(err))
			return
		}

		switch out.Kind {
		case registration.OutcomeSucceeded:
			response.WriteJSON(w, http.StatusCreated, response.OK(out.Student))
		case registration.OutcomeInvalid:
			response.WriteJSON(w, http.StatusUnprocessableEntity, response.FieldErrors(out.Errors))
		case registration.OutcomeCapacityReached, registration.OutcomeDuplicate:
			response.WriteJSON(w, http.StatusConflict, response.FieldErrors(out.Errors))
		default:
			response.WriteJSON(w, http.StatusInternalServerError, response.Message(out.Alert))
		}
	}
}

// Department is one entry of the departments listing.
type Department struct {
	Name      string `json:"name"`
	Count     int    `json:"count"`
	Capacity  int    `json:"capacity"`
	Remaining int    `json:"remaining"`
}

// Departments handles GET /api/departments: the configured departments in
// form order with their current (possibly cached) registration counts.
func Departments(counts *registration.CountsService, rules registration.Rules) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		byDept, err := counts.Counts(r.Context())
		if err != nil {
			slog.Error("error loading department counts", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Message(AlertCounts))
			return
		}

		departments := make([]Department, 0, len(rules.Departments))
		for _, name := range rules.Departments {
			n := byDept[name]
			departments = append(departments, Department{
				Name:      name,
				Count:     n,
				Capacity:  rules.Capacity,
				Remaining: max(rules.Capacity-n, 0),
			})
		}

		response.WriteJSON(w, http.StatusOK, response.OK(departments))
	}
}
