package student_test

import (
	"context"
	"testing"

	"student-roster/internal/student"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRoster(t *testing.T) student.Service {
	t.Helper()
	svc, _ := newTestService(t)
	seed(t, svc,
		newStudent(t, "CS0001", "Ada Lovelace", "Computer Science", 300, 3.9, student.StatusActive),
		newStudent(t, "CS0002", "Alan Turing", "Computer Science", 400, 3.9, student.StatusActive),
		newStudent(t, "CS0003", "Grace Hopper", "Computer Science", 100, 1.5, student.StatusActive),
		newStudent(t, "MA0001", "Emmy Noether", "Mathematics", 200, 0.5, student.StatusActive),
		newStudent(t, "MA0002", "Kurt Godel", "Mathematics", 200, 2.5, student.StatusActive),
		newStudent(t, "PH0001", "Marie Curie", "Physics", 300, 1.0, student.StatusInactive),
		newStudent(t, "EN0001", "Nikola Tesla", "Engineering", 500, 4.0, student.StatusInactive),
	)
	return svc
}

func TestStudentService_AtRisk(t *testing.T) {
	svc := seedRoster(t)

	got, err := svc.AtRisk(context.Background(), 2.0)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "MA0001", got[0].ID)
	assert.Equal(t, "CS0003", got[1].ID)
	for i, s := range got {
		assert.Equal(t, student.StatusActive, s.Status)
		assert.Less(t, s.GPA, 2.0)
		if i > 0 {
			assert.LessOrEqual(t, got[i-1].GPA, s.GPA)
		}
	}

	t.Run("ThresholdIsExclusive", func(t *testing.T) {
		got, err := svc.AtRisk(context.Background(), 1.5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "MA0001", got[0].ID)
	})
}

func TestStudentService_TopPerformers(t *testing.T) {
	svc := seedRoster(t)
	ctx := context.Background()

	t.Run("NoFilters", func(t *testing.T) {
		got, err := svc.TopPerformers(ctx, nil, nil, 10)
		require.NoError(t, err)

		require.Len(t, got, 5)
		for i, s := range got {
			assert.Equal(t, student.StatusActive, s.Status)
			if i > 0 {
				assert.GreaterOrEqual(t, got[i-1].GPA, s.GPA)
			}
		}
		// Equal GPAs keep storage order (full name)
		assert.Equal(t, "CS0001", got[0].ID)
		assert.Equal(t, "CS0002", got[1].ID)
	})

	t.Run("Limit", func(t *testing.T) {
		got, err := svc.TopPerformers(ctx, nil, nil, 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = svc.TopPerformers(ctx, nil, nil, 0)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = svc.TopPerformers(ctx, nil, nil, -3)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ProgrammeAndLevel", func(t *testing.T) {
		programme := "Mathematics"
		got, err := svc.TopPerformers(ctx, &programme, nil, 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "MA0002", got[0].ID)

		level := 100
		got, err = svc.TopPerformers(ctx, nil, &level, 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "CS0003", got[0].ID)
	})
}

func TestStudentService_GPADistribution(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyRosterHasAllBands", func(t *testing.T) {
		svc, _ := newTestService(t)

		got, err := svc.GPADistribution(ctx)
		require.NoError(t, err)
		assert.Equal(t, []student.Band{
			{Label: "0.0 - 1.0", Count: 0},
			{Label: "1.0 - 2.0", Count: 0},
			{Label: "2.0 - 3.0", Count: 0},
			{Label: "3.0 - 4.0", Count: 0},
		}, got)
	})

	t.Run("CountsActiveOnly", func(t *testing.T) {
		svc := seedRoster(t)

		got, err := svc.GPADistribution(ctx)
		require.NoError(t, err)
		assert.Equal(t, []student.Band{
			{Label: "0.0 - 1.0", Count: 1},
			{Label: "1.0 - 2.0", Count: 1},
			{Label: "2.0 - 3.0", Count: 1},
			{Label: "3.0 - 4.0", Count: 2},
		}, got)
	})

	t.Run("FourPointZeroInTopBand", func(t *testing.T) {
		svc, _ := newTestService(t)
		seed(t, svc, newStudent(t, "EN0002", "Perfect Score", "Engineering", 100, 4.0, student.StatusActive))

		got, err := svc.GPADistribution(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, got[3].Count)
	})
}

func TestStudentService_ProgrammeSummary(t *testing.T) {
	svc := seedRoster(t)

	got, err := svc.ProgrammeSummary(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Computer Science", got[0].Programme)
	assert.Equal(t, 3, got[0].StudentCount)
	assert.InDelta(t, (3.9+3.9+1.5)/3, got[0].AverageGPA, 1e-9)
	assert.Equal(t, "Mathematics", got[1].Programme)
	assert.Equal(t, 2, got[1].StudentCount)
	assert.InDelta(t, 1.5, got[1].AverageGPA, 1e-9)
}

func TestStudentService_Stats(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		svc, _ := newTestService(t)
		got, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, student.Stats{}, got)
	})

	t.Run("IncludesInactiveInAverage", func(t *testing.T) {
		svc := seedRoster(t)
		got, err := svc.Stats(ctx)
		require.NoError(t, err)

		assert.Equal(t, 7, got.Total)
		assert.Equal(t, 5, got.Active)
		assert.Equal(t, 2, got.Inactive)
		assert.InDelta(t, (3.9+3.9+1.5+0.5+2.5+1.0+4.0)/7, got.AverageGPA, 1e-9)
	})
}

func TestStudentService_Search(t *testing.T) {
	svc := seedRoster(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter student.Filter
		want   []string
	}{
		{"All", student.Filter{}, []string{"CS0001", "CS0002", "MA0001", "CS0003", "MA0002", "PH0001", "EN0001"}},
		{"QueryOnName", student.Filter{Query: "TUR"}, []string{"CS0002"}},
		{"QueryOnID", student.Filter{Query: "ma00"}, []string{"MA0001", "MA0002"}},
		{"Programme", student.Filter{Programme: "Physics"}, []string{"PH0001"}},
		{"Level", student.Filter{Level: 200}, []string{"MA0001", "MA0002"}},
		{"Status", student.Filter{Status: student.StatusInactive}, []string{"PH0001", "EN0001"}},
		{"Combined", student.Filter{Programme: "Computer Science", Query: "a"}, []string{"CS0001", "CS0002", "CS0003"}},
		{"NoMatch", student.Filter{Query: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestStudentService_StudentsByStatus(t *testing.T) {
	svc := seedRoster(t)
	ctx := context.Background()

	all, err := svc.StudentsByStatus(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 7)

	active, err := svc.StudentsByStatus(ctx, student.StatusActive)
	require.NoError(t, err)
	assert.Len(t, active, 5)

	inactive, err := svc.StudentsByStatus(ctx, student.StatusInactive)
	require.NoError(t, err)
	assert.Len(t, inactive, 2)
}
