package catalog_test

import (
	"testing"

	"github.com/Astemirdum/fabtrack/internal/catalog"
	"github.com/Astemirdum/fabtrack/internal/model"
	"github.com/stretchr/testify/require"
)

var list = []model.Equipment{
	{ID: "1", Name: "Prusa MK4", Category: "3D Printers", Available: true},
	{ID: "2", Name: "Oscilloscope", Category: "Electronics"},
	{ID: "3", Name: "Soldering station", Category: "electronics", Available: true},
	{ID: "4", Name: "Laser cutter"},
}

func TestFilter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		query string
		want  []model.ID
	}{
		{name: "empty", query: "  ", want: []model.ID{"1", "2", "3", "4"}},
		{name: "by name", query: "PRUSA", want: []model.ID{"1"}},
		{name: "by category", query: "electro", want: []model.ID{"2", "3"}},
		{name: "name or category", query: "er", want: []model.ID{"1", "3", "4"}},
		{name: "no match", query: "lathe", want: []model.ID{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := make([]model.ID, 0)
			for _, eq := range catalog.Filter(list, tt.query) {
				got = append(got, eq.ID)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLabelAndFind(t *testing.T) {
	t.Parallel()
	require.Equal(t, "Available", catalog.Label(list[0]))
	require.Equal(t, "Unavailable", catalog.Label(list[1]))

	eq, ok := catalog.Find(list, "3")
	require.True(t, ok)
	require.Equal(t, "Soldering station", eq.Name)
	_, ok = catalog.Find(list, "9")
	require.False(t, ok)

	require.Equal(t, []string{"3D Printers", "Electronics"}, catalog.Categories(list))
}
