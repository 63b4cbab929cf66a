/*
scenarios.go - Seed scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built organizations that populate the store with known
	data for manual testing, demos and the HTTP tests. Each scenario
	creates employees with fixed ids, wires their reporting lines and
	optionally adds compensation history.

AVAILABLE SCENARIOS:

	beatles:     Lennon's team, three levels, compensation for Lennon
	deep-chain:  A 12-level management chain, deeper than maxDepth allows
	wide-team:   One manager with 25 direct reports
	empty:       No data

HOW SCENARIOS WORK:
 1. Reset store (clear all data)
 2. Create leaf employees first
 3. Create managers with their direct reports
 4. Add compensation records

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "beatles"}

USAGE AT STARTUP:

	./server -seed=beatles

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Employee endpoints exercised by the scenarios
  - cmd/server/main.go: -seed flag
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/employee-directory/directory"
	"go.uber.org/zap"
)

// Well-known ids of the beatles scenario.
const (
	LennonID    = "16a596ae-edd3-4847-99fe-c4518e82c86f"
	McCartneyID = "b7839309-3348-463b-a7e3-5de1c168beb3"
	StarrID     = "03aa1462-ffa9-4978-901b-7c001562cf6f"
	BestID      = "62c1084e-6e34-4630-93fd-9153afb65309"
	HarrisonID  = "c0c2293d-16bd-4603-8e08-638a9d18b22c"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "beatles",
		Name:        "The Beatles",
		Description: "Lennon manages McCartney and Starr; Starr manages Best and Harrison",
		Employees:   5,
	},
	{
		ID:          "deep-chain",
		Name:        "Deep Chain",
		Description: "Twelve-level management chain, deeper than the maximum walk depth",
		Employees:   deepChainLength,
	},
	{
		ID:          "wide-team",
		Name:        "Wide Team",
		Description: "One manager with many direct reports and no second level",
		Employees:   wideTeamSize + 1,
	},
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "No employees",
		Employees:   0,
	},
}

const (
	deepChainLength = 12
	wideTeamSize    = 25
)

var loaders = map[string]func(ctx context.Context, store directory.Store) error{
	"beatles":    loadBeatlesScenario,
	"deep-chain": loadDeepChainScenario,
	"wide-team":  loadWideTeamScenario,
	"empty":      func(context.Context, directory.Store) error { return nil },
}

// Seed resets the store behind svc and loads the named scenario.
func Seed(ctx context.Context, svc *directory.Service, scenarioID string) error {
	load, ok := loaders[scenarioID]
	if !ok {
		return fmt.Errorf("unknown scenario %q", scenarioID)
	}
	if err := svc.Store().Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	if err := load(ctx, svc.Store()); err != nil {
		return fmt.Errorf("load scenario %s: %w", scenarioID, err)
	}
	return nil
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, ok := loaders[req.ScenarioID]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	if err := Seed(r.Context(), h.Service, req.ScenarioID); err != nil {
		h.Logger.Error("scenario load failed", zap.String("scenario", req.ScenarioID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "scenario": req.ScenarioID})
}

// SetCurrentScenario records a scenario seeded outside the API (startup).
func (h *Handler) SetCurrentScenario(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentScenario = id
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Service.Store().Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadBeatlesScenario(ctx context.Context, store directory.Store) error {
	employees := []*directory.Employee{
		{ID: McCartneyID, FirstName: "Paul", LastName: "McCartney", Position: "Developer I", Department: "Engineering"},
		{ID: BestID, FirstName: "Pete", LastName: "Best", Position: "Developer II", Department: "Engineering"},
		{ID: HarrisonID, FirstName: "George", LastName: "Harrison", Position: "Developer III", Department: "Engineering"},
		{
			ID: StarrID, FirstName: "Ringo", LastName: "Starr", Position: "Developer V", Department: "Engineering",
			DirectReports: []*directory.Employee{{ID: BestID}, {ID: HarrisonID}},
		},
		{
			ID: LennonID, FirstName: "John", LastName: "Lennon", Position: "Development Manager", Department: "Engineering",
			DirectReports: []*directory.Employee{{ID: McCartneyID}, {ID: StarrID}},
		},
	}
	for _, e := range employees {
		if err := store.CreateEmployee(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", e.FullName(), err)
		}
	}

	history := []struct {
		date   time.Time
		salary string
	}{
		{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), "150000.00"},
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "165000.50"},
	}
	for _, c := range history {
		err := store.UpsertCompensation(ctx, directory.Compensation{
			EmployeeID:    LennonID,
			EffectiveDate: c.date,
			Salary:        decimal.RequireFromString(c.salary),
		})
		if err != nil {
			return fmt.Errorf("compensation for Lennon: %w", err)
		}
	}
	return nil
}

// loadDeepChainScenario creates chain-01 -> chain-02 -> ... -> chain-12.
func loadDeepChainScenario(ctx context.Context, store directory.Store) error {
	var below *directory.Employee
	for level := deepChainLength; level >= 1; level-- {
		emp := &directory.Employee{
			ID:         fmt.Sprintf("chain-%02d", level),
			FirstName:  "Level",
			LastName:   fmt.Sprintf("%02d", level),
			Position:   fmt.Sprintf("Manager L%d", level),
			Department: "Operations",
		}
		if below != nil {
			emp.DirectReports = []*directory.Employee{{ID: below.ID}}
		}
		if err := store.CreateEmployee(ctx, emp); err != nil {
			return fmt.Errorf("create %s: %w", emp.ID, err)
		}
		below = emp
	}
	return nil
}

func loadWideTeamScenario(ctx context.Context, store directory.Store) error {
	reports := make([]*directory.Employee, 0, wideTeamSize)
	for i := 1; i <= wideTeamSize; i++ {
		emp := &directory.Employee{
			ID:         fmt.Sprintf("agent-%02d", i),
			FirstName:  "Agent",
			LastName:   fmt.Sprintf("%02d", i),
			Position:   "Support Agent",
			Department: "Support",
		}
		if err := store.CreateEmployee(ctx, emp); err != nil {
			return fmt.Errorf("create %s: %w", emp.ID, err)
		}
		reports = append(reports, &directory.Employee{ID: emp.ID})
	}

	return store.CreateEmployee(ctx, &directory.Employee{
		ID:            "support-lead",
		FirstName:     "Support",
		LastName:      "Lead",
		Position:      "Support Manager",
		Department:    "Support",
		DirectReports: reports,
	})
}
