package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLedger_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	l, err := Open(filepath.Join(t.TempDir(), "nested", "grades.db"))
	require.NoError(t, err)
	defer l.Close()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	grades := []Grade{
		{RunID: "r1", Variant: "media", Row: 2, Company: "Acme Labs", Category: "Eligible", Written: true, CreatedAt: base},
		{RunID: "r1", Variant: "media", Row: 3, Company: "Globex", Category: "Rejected", Error: "timeout", Written: true, CreatedAt: base.Add(time.Minute)},
		{RunID: "r2", Variant: "blog", Row: 2, Company: "Initech", Category: "Flagship", Written: true, CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range grades {
		require.NoError(t, l.Record(ctx, &grades[i]))
	}

	all, err := l.Recent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "Initech", all[0].Company)

	media, err := l.Recent(ctx, Query{Variant: "media", Limit: 1})
	require.NoError(t, err)
	require.Len(t, media, 1)
	require.Equal(t, "Globex", media[0].Company)

	byName, err := l.Recent(ctx, Query{Company: "acme"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, 2, byName[0].Row)
}

func TestLedger_Counts(t *testing.T) {
	ctx := context.Background()
	l, err := Open(":memory:")
	require.NoError(t, err)
	defer l.Close()

	for _, c := range []string{"Eligible", "Eligible", "Rejected"} {
		require.NoError(t, l.Record(ctx, &Grade{Variant: "media", Category: c, Written: true}))
	}
	require.NoError(t, l.Record(ctx, &Grade{Variant: "media", Category: "Flagship", Written: false}))

	counts, err := l.Counts(ctx, "media")
	require.NoError(t, err)
	require.Equal(t, []CategoryCount{{Category: "Eligible", Total: 2}, {Category: "Rejected", Total: 1}}, counts)
}

func TestLedger_RecordNil(t *testing.T) {
	l, err := Open(":memory:")
	require.NoError(t, err)
	defer l.Close()

	require.Error(t, l.Record(context.Background(), nil))
}

func TestGrade_Duration(t *testing.T) {
	g := Grade{DurationMS: 1500}
	require.Equal(t, 1500*time.Millisecond, g.Duration())
}
