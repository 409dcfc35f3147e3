package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rejot-dev/thalo/internal/workspace"
)

func TestParseQueryString_MultiQuery(t *testing.T) {
	queries, err := ParseQueryString(`lore, opinion where subject = "x"`)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	require.Equal(t, "lore", queries[0].Entity)
	require.Empty(t, queries[0].Conditions)
	require.Equal(t, "opinion", queries[1].Entity)
	require.Len(t, queries[1].Conditions, 1)
	require.Equal(t, ConditionField, queries[1].Conditions[0].Kind)
	require.Equal(t, "subject", queries[1].Conditions[0].Name)
	require.Equal(t, `"x"`, queries[1].Conditions[0].RawValue)
}

func TestParseQueryString_TagAndLinkConditions(t *testing.T) {
	queries, err := ParseQueryString(`lore where #travel and ^rome and subject = "y"`)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	conds := queries[0].Conditions
	require.Len(t, conds, 3)
	require.Equal(t, ConditionTag, conds[0].Kind)
	require.Equal(t, "travel", conds[0].Name)
	require.Equal(t, ConditionLink, conds[1].Kind)
	require.Equal(t, "rome", conds[1].Name)
	require.Equal(t, ConditionField, conds[2].Kind)
}

func TestParseQueryString_Errors(t *testing.T) {
	_, err := ParseQueryString("")
	require.Error(t, err)
	_, err = ParseQueryString("Lore")
	require.Error(t, err)
}

func TestFormatQuery_RoundTrip(t *testing.T) {
	in := `lore where subject = "x" and #travel and ^rome`
	queries, err := ParseQueryString(in)
	require.NoError(t, err)
	require.Equal(t, in, FormatQuery(queries[0]))
}

func buildQueryWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws := workspace.New()
	require.NoError(t, ws.AddDocument("b.thalo", []byte(
		"2026-01-06T09:00Z create opinion \"Later\" #travel\n  subject: \"x\"\n"), workspace.AddOptions{}))
	require.NoError(t, ws.AddDocument("a.thalo", []byte(
		"2026-01-05T18:00Z create lore \"Earlier\" ^rome #travel\n  subject: \"x\"\n\n"+
			"2026-01-07T10:00Z create lore \"Linked\"\n  about: ^rome\n"), workspace.AddOptions{}))
	return ws
}

func TestExecuteQueries_SortAndEntityFilter(t *testing.T) {
	ws := buildQueryWorkspace(t)
	queries, err := ParseQueryString("lore, opinion")
	require.NoError(t, err)

	matches := ExecuteQueries(ws, queries, ExecuteOptions{})
	require.Len(t, matches, 3)
	require.Equal(t, "Earlier", matches[0].Instance.Header.Title)
	require.Equal(t, "Later", matches[1].Instance.Header.Title)
	require.Equal(t, "Linked", matches[2].Instance.Header.Title)
}

func TestExecuteQueries_AfterTimestamp(t *testing.T) {
	ws := buildQueryWorkspace(t)
	queries, err := ParseQueryString("lore, opinion")
	require.NoError(t, err)

	matches := ExecuteQueries(ws, queries, ExecuteOptions{AfterTimestamp: "2026-01-06T09:00Z"})
	require.Len(t, matches, 1)
	require.Equal(t, "Linked", matches[0].Instance.Header.Title)
}

func TestExecuteQueries_LinkCondition(t *testing.T) {
	ws := buildQueryWorkspace(t)
	queries, err := ParseQueryString("lore where ^rome")
	require.NoError(t, err)

	matches := ExecuteQueries(ws, queries, ExecuteOptions{})
	// header link on "Earlier", metadata link on "Linked"
	require.Len(t, matches, 2)
	require.Equal(t, "Earlier", matches[0].Instance.Header.Title)
	require.Equal(t, "Linked", matches[1].Instance.Header.Title)
}

func TestExecuteQueries_TagCondition(t *testing.T) {
	ws := buildQueryWorkspace(t)
	queries, err := ParseQueryString("opinion where #travel")
	require.NoError(t, err)

	matches := ExecuteQueries(ws, queries, ExecuteOptions{})
	require.Len(t, matches, 1)
	require.Equal(t, "Later", matches[0].Instance.Header.Title)
}

func TestExecuteQueries_FieldCondition(t *testing.T) {
	ws := buildQueryWorkspace(t)
	queries, err := ParseQueryString(`lore where subject = "x"`)
	require.NoError(t, err)

	matches := ExecuteQueries(ws, queries, ExecuteOptions{})
	require.Len(t, matches, 1)
	require.Equal(t, "Earlier", matches[0].Instance.Header.Title)
}

func TestExecuteQueries_InsertionOrderIndependent(t *testing.T) {
	build := func(order []string) []string {
		ws := workspace.New()
		sources := map[string]string{
			"a.thalo": "2026-01-05T18:00Z create lore \"A\"\n  k: \"v\"\n",
			"b.thalo": "2026-01-05T18:00Z create lore \"B\"\n  k: \"v\"\n",
		}
		for _, f := range order {
			require.NoError(t, ws.AddDocument(f, []byte(sources[f]), workspace.AddOptions{}))
		}
		queries, err := ParseQueryString("lore")
		require.NoError(t, err)
		var titles []string
		for _, m := range ExecuteQueries(ws, queries, ExecuteOptions{}) {
			titles = append(titles, m.Instance.Header.Title)
		}
		return titles
	}
	require.Equal(t, build([]string{"a.thalo", "b.thalo"}), build([]string{"b.thalo", "a.thalo"}))
}
