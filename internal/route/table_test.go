package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_RejectsDuplicates(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Register(Definition{Name: "home", Path: "/"}))

	err := table.Register(Definition{Name: "home", Path: "/home"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeDuplicateRoute, CodeOf(err))
	assert.True(t, IsRegistrationError(err))
}

func TestRegister_RejectsBadPatterns(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"no name", Definition{Path: "/a"}},
		{"no path", Definition{Name: "a"}},
		{"empty param", Definition{Name: "a", Path: "/a/:"}},
		{"repeated param", Definition{Name: "a", Path: "/a/:id/:id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTable().Register(tt.def)
			require.Error(t, err)
			assert.Equal(t, ErrCodeInvalidPattern, CodeOf(err))
		})
	}
}

func TestFreeze_BlocksRegistration(t *testing.T) {
	table := NewTable()
	table.Freeze()
	assert.True(t, table.Frozen())

	err := table.Register(Definition{Name: "a", Path: "/a"})
	assert.Equal(t, ErrCodeTableFrozen, CodeOf(err))
}

func TestMustRegister_Panics(t *testing.T) {
	assert.Panics(t, func() {
		NewTable().MustRegister(
			Definition{Name: "a", Path: "/a"},
			Definition{Name: "a", Path: "/b"},
		)
	})
}

func TestTableMatch_FirstRegisteredWins(t *testing.T) {
	table := NewTable().MustRegister(
		Definition{Name: "product", Path: "/product/:id"},
		Definition{Name: "productNew", Path: "/product/new"},
	)

	def, bound, ok := table.Match("/product/new")
	require.True(t, ok)
	assert.Equal(t, "product", def.Name)
	assert.Equal(t, "new", bound["id"].String())

	// Reversed registration order flips the winner.
	table = NewTable().MustRegister(
		Definition{Name: "productNew", Path: "/product/new"},
		Definition{Name: "product", Path: "/product/:id"},
	)
	def, _, ok = table.Match("/product/new")
	require.True(t, ok)
	assert.Equal(t, "productNew", def.Name)
}

func TestTable_NamesInOrder(t *testing.T) {
	table := NewTable().MustRegister(
		Definition{Name: "z", Path: "/z"},
		Definition{Name: "a", Path: "/a"},
		Definition{Name: "m", Path: "/m"},
	)
	assert.Equal(t, []string{"z", "a", "m"}, table.Names())
	assert.Equal(t, 3, table.Len())

	def, ok := table.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "/a", def.Path)

	_, ok = table.Lookup("missing")
	assert.False(t, ok)
}
