package restdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeIndex(t *testing.T) {
	idx, err := NormalizeIndex("email")
	require.NoError(t, err)
	require.Equal(t, []string{"email"}, idx.Keys)

	idx, err = NormalizeIndex([]string{"lastName", "firstName"})
	require.NoError(t, err)
	require.Equal(t, []string{"lastName", "firstName"}, idx.Keys)

	idx, err = (&Table{Name: "people"}).NormalizeIndex([]any{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, idx.Keys)

	for _, bad := range []any{nil, 42, []any{"a", 1}, map[string]any{"keys": []string{"a"}}} {
		_, err := NormalizeIndex(bad)
		var iie *InvalidIndexError
		require.ErrorAs(t, err, &iie, "%#v", bad)
	}
}

func newTestClient(t *testing.T, endpoint string) *Client {
	c, err := NewClient(&Config{Name: "test", Endpoint: endpoint})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestClientTableRegistry(t *testing.T) {
	c := newTestClient(t, "http://api.test")

	users := c.Table("Users")
	require.Same(t, users, c.Table("Users"))
	require.Same(t, c, users.Client())

	orders, err := NewTable("Orders", c)
	require.NoError(t, err)
	require.Same(t, orders, c.Table("Orders"))

	tables := c.Tables()
	require.Len(t, tables, 2)
	require.Equal(t, "Users", tables[0].Name)
	require.Equal(t, "Orders", tables[1].Name)

	_, err = NewTable("", c)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)

	unnamed := c.Table("")
	require.Same(t, c, unnamed.Client())
	require.Len(t, c.Tables(), 2)
	_, err = unnamed.GetRange(context.Background(), nil)
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "name", ce.Field)
}

func TestNormalizeTable(t *testing.T) {
	c := newTestClient(t, "http://api.test")
	other := newTestClient(t, "http://other.test")

	_, err := c.normalizeTable(nil)
	require.ErrorIs(t, err, ErrMissingTable)

	detached, err := NewTable("Users", nil)
	require.NoError(t, err)
	require.Nil(t, detached.Client())
	resolved, err := c.normalizeTable(detached)
	require.NoError(t, err)
	require.Same(t, c.Table("Users"), resolved)

	resolved, err = c.normalizeTable(other.Table("Users"))
	require.NoError(t, err)
	require.Same(t, c.Table("Users"), resolved)

	_, err = c.normalizeTable(&Table{})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
}

func TestDetachedTableOperations(t *testing.T) {
	detached, err := NewTable("Users", nil)
	require.NoError(t, err)

	_, err = detached.Get(context.Background(), StringKey("a"), nil)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "client", ce.Field)

	var nilTable *Table
	require.ErrorIs(t, nilTable.Del(context.Background(), StringKey("a"), nil), ErrMissingTable)
}
