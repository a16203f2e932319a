package readers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeList(t *testing.T) {
	require.Equal(t, []string{"go", "web"}, NormalizeList("go, web"))
	require.Equal(t, []string{"go", "a, b"}, NormalizeList("go; a, b"),
		"a semicolon switches the separator")
	require.Equal(t, []string{"one"}, NormalizeList(" one , one ,, "))
	require.Equal(t, []string{"x", "y"}, NormalizeList([]any{"x", "y", "x"}))
	require.Nil(t, NormalizeList(nil))
}

func TestNormalizeListIdempotent(t *testing.T) {
	once := NormalizeList("b, a, b")
	require.Equal(t, once, NormalizeList(once))
}

func TestParseDateLayouts(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)

	cases := map[string]time.Time{
		"2020-01-15":       time.Date(2020, 1, 15, 0, 0, 0, 0, loc),
		"2020-01-15 08:30": time.Date(2020, 1, 15, 8, 30, 0, 0, loc),
		"2020/01/15":       time.Date(2020, 1, 15, 0, 0, 0, 0, loc),
		"15 Jan 2020":      time.Date(2020, 1, 15, 0, 0, 0, 0, loc),
	}
	for in, want := range cases {
		got, err := ParseDate(in, loc)
		require.NoError(t, err, in)
		require.True(t, want.Equal(got), "%s: want %v, got %v", in, want, got)
	}
}

func TestParseDateRehomesYAMLTimestamps(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)

	// yaml.v3 hands bare dates over as UTC; the wall clock must be kept
	// while the zone moves to the build timezone.
	in := time.Date(2020, 1, 15, 10, 0, 0, 0, time.UTC)
	got, err := ParseDate(in, loc)
	require.NoError(t, err)
	require.Equal(t, 10, got.Hour())
	require.Equal(t, loc, got.Location())
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := ParseDate("not a date", time.UTC)
	require.Error(t, err)
	_, err = ParseDate(42, time.UTC)
	require.Error(t, err)
}
