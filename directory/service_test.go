package directory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/employee-directory/directory"
	"github.com/warp/employee-directory/directory/store"
)

func TestService_ReportingStructure_Validation(t *testing.T) {
	// Validation happens before the store is touched.
	counting := newCountingStore(store.NewMemory())
	svc := directory.NewService(counting)
	ctx := context.Background()

	for _, depth := range []int{-1, 0, 11, 100} {
		_, err := svc.ReportingStructure(ctx, lennonID, depth, false)
		assert.ErrorIs(t, err, directory.ErrInvalidMaxDepth, "depth %d", depth)
		assert.Equal(t, "maxDepth must be between 1 and 10, inclusive.", err.Error())
	}

	_, err := svc.ReportingStructure(ctx, "  ", 5, false)
	assert.ErrorIs(t, err, directory.ErrIDRequired)

	assert.Zero(t, counting.total())
}

func TestService_ReportingStructure_NotFound(t *testing.T) {
	svc := directory.NewService(newBeatlesStore(t))

	_, err := svc.ReportingStructure(context.Background(), "39AD864F-BBB4-4D65-80E7-0AC9244A29B5", 5, false)
	assert.ErrorIs(t, err, directory.ErrEmployeeNotFound)
	assert.True(t, directory.IsNotFound(err))
}

func TestService_GetByID(t *testing.T) {
	svc := directory.NewService(newBeatlesStore(t))
	ctx := context.Background()

	emp, err := svc.GetByID(ctx, lennonID)
	require.NoError(t, err)
	assert.Equal(t, "John", emp.FirstName)
	assert.Equal(t, "Lennon", emp.LastName)
	assert.Nil(t, emp.DirectReports)
	assert.Nil(t, emp.Compensation)

	emp, err = svc.GetByID(ctx, lennonID, directory.FieldDirectReports, directory.FieldCompensation)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{paulID, ringoID}, emp.ReportIDs())
	assert.NotNil(t, emp.Compensation)
	assert.Empty(t, emp.Compensation)

	_, err = svc.GetByID(ctx, "")
	assert.ErrorIs(t, err, directory.ErrIDRequired)

	_, err = svc.GetByID(ctx, "nobody")
	assert.ErrorIs(t, err, directory.ErrEmployeeNotFound)
}

func TestService_GetByID_Repeatable(t *testing.T) {
	// Reading the same employee twice yields equal results.
	svc := directory.NewService(newBeatlesStore(t))
	ctx := context.Background()

	for _, fields := range [][]directory.Field{
		nil,
		{directory.FieldDirectReports},
		{directory.FieldDirectReports, directory.FieldCompensation},
	} {
		first, err := svc.GetByID(ctx, lennonID, fields...)
		require.NoError(t, err)
		second, err := svc.GetByID(ctx, lennonID, fields...)
		require.NoError(t, err)

		assert.Equal(t, first, second, "fields %v", fields)
	}
}

func TestService_List_SortedByName(t *testing.T) {
	svc := directory.NewService(newBeatlesStore(t))

	employees, err := svc.List(context.Background())
	require.NoError(t, err)

	var names []string
	for _, e := range employees {
		names = append(names, e.LastName)
	}
	assert.Equal(t, []string{"Best", "Harrison", "Lennon", "McCartney", "Starr"}, names)
}

// =============================================================================
// CREATE / REPLACE
// =============================================================================

func TestService_Create_AssignsID(t *testing.T) {
	// GIVEN: A new employee carrying its own id
	svc := directory.NewService(newBeatlesStore(t))
	ctx := context.Background()

	// WHEN: Creating it
	created, err := svc.Create(ctx, &directory.Employee{
		ID:         "client-chosen",
		FirstName:  "Debbie",
		LastName:   "Downer",
		Position:   "Receiver",
		Department: "Complaints",
	})

	// THEN: The store picks a UUID and ignores the client's id
	require.NoError(t, err)
	assert.NotEqual(t, "client-chosen", created.ID)
	_, parseErr := uuid.Parse(created.ID)
	assert.NoError(t, parseErr)
	assert.Nil(t, created.DirectReports)

	fetched, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Debbie", fetched.FirstName)
	assert.Equal(t, "Complaints", fetched.Department)
}

func TestService_Create_WithReports(t *testing.T) {
	svc := directory.NewService(newBeatlesStore(t))
	ctx := context.Background()

	created, err := svc.Create(ctx, &directory.Employee{
		FirstName:     "Brian",
		LastName:      "Epstein",
		DirectReports: []*directory.Employee{{ID: lennonID}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{lennonID}, created.ReportIDs())

	rs, err := svc.ReportingStructure(ctx, created.ID, directory.DefaultDepth, false)
	require.NoError(t, err)
	assert.Equal(t, 5, rs.NumberOfReports)
}

func TestService_Create_UnknownReport(t *testing.T) {
	svc := directory.NewService(newBeatlesStore(t))

	_, err := svc.Create(context.Background(), &directory.Employee{
		FirstName:     "Nobody",
		DirectReports: []*directory.Employee{{ID: "missing"}},
	})
	assert.ErrorIs(t, err, directory.ErrUnknownReport)
	assert.True(t, directory.IsClientError(err))
}

func TestService_Update_KeepsReportsWhenOmitted(t *testing.T) {
	// GIVEN: Ringo manages Pete and George
	svc := directory.NewService(newBeatlesStore(t))
	ctx := context.Background()

	// WHEN: Replacing Ringo without a report list
	updated, err := svc.Update(ctx, ringoID, &directory.Employee{
		ID:         "ignored",
		FirstName:  "Pete",
		LastName:   "Best",
		Position:   "Developer VI",
		Department: "Engineering",
	})

	// THEN: Fields change, id and reports stay
	require.NoError(t, err)
	assert.Equal(t, ringoID, updated.ID)
	assert.Equal(t, "Developer VI", updated.Position)

	emp, err := svc.GetByID(ctx, ringoID, directory.FieldDirectReports)
	require.NoError(t, err)
	assert.Equal(t, "Pete", emp.FirstName)
	assert.ElementsMatch(t, []string{peteID, georgeID}, emp.ReportIDs())
}

func TestService_Update_ReplacesReports(t *testing.T) {
	svc := directory.NewService(newBeatlesStore(t))
	ctx := context.Background()

	// Move George from Ringo to Paul.
	_, err := svc.Update(ctx, paulID, &directory.Employee{
		FirstName:     "Paul",
		LastName:      "McCartney",
		DirectReports: []*directory.Employee{{ID: georgeID}},
	})
	require.NoError(t, err)

	ringo, err := svc.GetByID(ctx, ringoID, directory.FieldDirectReports)
	require.NoError(t, err)
	assert.Equal(t, []string{peteID}, ringo.ReportIDs())

	rs, err := svc.ReportingStructure(ctx, lennonID, directory.DefaultDepth, false)
	require.NoError(t, err)
	assert.Equal(t, 4, rs.NumberOfReports)

	// An empty list clears the reports.
	_, err = svc.Update(ctx, paulID, &directory.Employee{
		FirstName:     "Paul",
		LastName:      "McCartney",
		DirectReports: []*directory.Employee{},
	})
	require.NoError(t, err)

	rs, err = svc.ReportingStructure(ctx, lennonID, directory.DefaultDepth, false)
	require.NoError(t, err)
	assert.Equal(t, 3, rs.NumberOfReports)
}

func TestService_Update_Errors(t *testing.T) {
	svc := directory.NewService(newBeatlesStore(t))
	ctx := context.Background()

	_, err := svc.Update(ctx, "Invalid_Id", &directory.Employee{FirstName: "Sunny", LastName: "Bono"})
	assert.ErrorIs(t, err, directory.ErrEmployeeNotFound)

	_, err = svc.Update(ctx, ringoID, &directory.Employee{
		FirstName:     "Ringo",
		DirectReports: []*directory.Employee{{ID: ringoID}},
	})
	assert.ErrorIs(t, err, directory.ErrSelfReport)

	_, err = svc.Update(ctx, ringoID, &directory.Employee{
		FirstName:     "Ringo",
		DirectReports: []*directory.Employee{{ID: "missing"}},
	})
	assert.ErrorIs(t, err, directory.ErrUnknownReport)
}

func TestService_Update_RejectsReportingCycle(t *testing.T) {
	// GIVEN: Lennon -> Ringo -> {Pete, George}
	svc := directory.NewService(newBeatlesStore(t))
	ctx := context.Background()

	tests := []struct {
		name    string
		id      string
		reports []string
	}{
		{"manager as direct report", ringoID, []string{lennonID}},
		{"grand-manager under a leaf", peteID, []string{lennonID}},
		{"manager listed after a valid report", ringoID, []string{peteID, lennonID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports := make([]*directory.Employee, len(tt.reports))
			for i, id := range tt.reports {
				reports[i] = &directory.Employee{ID: id}
			}

			// WHEN: Listing someone above the employee as its report
			_, err := svc.Update(ctx, tt.id, &directory.Employee{FirstName: "X", DirectReports: reports})

			// THEN: The update is refused as a client error and nothing changed
			assert.ErrorIs(t, err, directory.ErrReportingCycle)
			assert.True(t, directory.IsClientError(err))

			rs, err := svc.ReportingStructure(ctx, lennonID, directory.DefaultDepth, false)
			require.NoError(t, err)
			assert.Equal(t, 4, rs.NumberOfReports)
		})
	}
}

func TestService_Update_AllowsMoveAcrossBranches(t *testing.T) {
	// Pete is not above Paul, so Paul may take him over.
	svc := directory.NewService(newBeatlesStore(t))
	ctx := context.Background()

	_, err := svc.Update(ctx, paulID, &directory.Employee{
		FirstName:     "Paul",
		DirectReports: []*directory.Employee{{ID: peteID}},
	})
	require.NoError(t, err)

	rs, err := svc.ReportingStructure(ctx, lennonID, directory.DefaultDepth, false)
	require.NoError(t, err)
	assert.Equal(t, 4, rs.NumberOfReports)
	assert.False(t, rs.IsTruncated)
}

// =============================================================================
// COMPENSATION
// =============================================================================

func TestService_Compensation_Upsert(t *testing.T) {
	// GIVEN: Lennon with no compensation
	svc := directory.NewService(newBeatlesStore(t))
	ctx := context.Background()

	_, err := svc.CurrentCompensation(ctx, lennonID)
	require.ErrorIs(t, err, directory.ErrCompensationNotFound)

	// WHEN: Adding two records out of order, then overwriting one
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jul := time.Date(2024, 7, 1, 15, 30, 0, 0, time.UTC)

	_, err = svc.AddOrUpdateCompensation(ctx, directory.Compensation{EmployeeID: lennonID, EffectiveDate: jul, Salary: decimal.RequireFromString("120000")})
	require.NoError(t, err)
	_, err = svc.AddOrUpdateCompensation(ctx, directory.Compensation{EmployeeID: lennonID, EffectiveDate: jan, Salary: decimal.RequireFromString("100000")})
	require.NoError(t, err)
	stored, err := svc.AddOrUpdateCompensation(ctx, directory.Compensation{EmployeeID: lennonID, EffectiveDate: jul, Salary: decimal.RequireFromString("125000.50")})
	require.NoError(t, err)

	// THEN: The latest date wins and the overwrite did not add a row
	assert.Equal(t, lennonID, stored.Employee.ID)
	assert.Equal(t, directory.NormalizeDate(jul), stored.EffectiveDate)

	current, err := svc.CurrentCompensation(ctx, lennonID)
	require.NoError(t, err)
	assert.True(t, current.Salary.Equal(decimal.RequireFromString("125000.50")))
	assert.Equal(t, directory.NormalizeDate(jul), current.EffectiveDate)
	require.NotNil(t, current.Employee)
	assert.Equal(t, "Lennon", current.Employee.LastName)

	emp, err := svc.GetByID(ctx, lennonID, directory.FieldCompensation)
	require.NoError(t, err)
	assert.Len(t, emp.Compensation, 2)
}

func TestService_Compensation_Errors(t *testing.T) {
	svc := directory.NewService(newBeatlesStore(t))
	ctx := context.Background()

	_, err := svc.AddOrUpdateCompensation(ctx, directory.Compensation{EmployeeID: "", Salary: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, directory.ErrIDRequired)

	_, err = svc.AddOrUpdateCompensation(ctx, directory.Compensation{EmployeeID: "nobody", Salary: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, directory.ErrEmployeeNotFound)

	_, err = svc.AddOrUpdateCompensation(ctx, directory.Compensation{EmployeeID: lennonID, Salary: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, directory.ErrInvalidSalary)

	_, err = svc.CurrentCompensation(ctx, "nobody")
	assert.ErrorIs(t, err, directory.ErrEmployeeNotFound)
}

func TestService_Compensation_DefaultsToToday(t *testing.T) {
	svc := directory.NewService(newBeatlesStore(t))
	ctx := context.Background()

	stored, err := svc.AddOrUpdateCompensation(ctx, directory.Compensation{EmployeeID: paulID, Salary: decimal.NewFromInt(90000)})
	require.NoError(t, err)
	assert.Equal(t, directory.NormalizeDate(time.Now()), stored.EffectiveDate)
}

// =============================================================================
// FIELDS
// =============================================================================

func TestParseFields(t *testing.T) {
	fields := directory.ParseFields("directReports, Compensation,bogus,directreports")
	assert.Equal(t, []directory.Field{directory.FieldDirectReports, directory.FieldCompensation}, fields)
	assert.Empty(t, directory.ParseFields(""))

	_, ok := directory.ParseField("manager")
	assert.False(t, ok)
	assert.Equal(t, "directReports", directory.FieldDirectReports.String())
}
