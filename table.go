package restdb

import (
	"context"
	"encoding/json"
)

// Table is a named namespace of items within a database. It holds no
// schema and no resources.
type Table struct {
	c *Client

	// Name is the table name as the application spells it, e.g.
	// "UserAccount". It is dasherized when placed in a URL.
	Name string
}

// NewTable creates a table descriptor. With a non-nil client the table is
// registered on it; a detached descriptor is resolved by name when passed
// to a client operation.
func NewTable(name string, c *Client) (*Table, error) {
	if name == "" {
		return nil, &ConfigError{Field: "name", Reason: "missing"}
	}
	if c == nil {
		return &Table{Name: name}, nil
	}
	return c.Table(name), nil
}

// Client returns the client the table is registered on, or nil for a
// detached descriptor.
func (t *Table) Client() *Client {
	return t.c
}

// Index describes the keys of a secondary index. It is metadata only.
type Index struct {
	Keys []string `json:"keys"`
}

// NormalizeIndex turns an index shorthand into an Index: a single key name
// or an ordered list of key names.
func NormalizeIndex(indexOrKeys any) (*Index, error) {
	switch v := indexOrKeys.(type) {
	case string:
		return &Index{Keys: []string{v}}, nil
	case []string:
		return &Index{Keys: v}, nil
	case []any:
		keys := make([]string, 0, len(v))
		for _, k := range v {
			s, ok := k.(string)
			if !ok {
				return nil, &InvalidIndexError{Value: indexOrKeys}
			}
			keys = append(keys, s)
		}
		return &Index{Keys: keys}, nil
	default:
		return nil, &InvalidIndexError{Value: indexOrKeys}
	}
}

// NormalizeIndex is NormalizeIndex bound to the table.
func (t *Table) NormalizeIndex(indexOrKeys any) (*Index, error) {
	return NormalizeIndex(indexOrKeys)
}

func (t *Table) client() (*Client, error) {
	if t == nil {
		return nil, ErrMissingTable
	}
	if t.c == nil {
		return nil, &ConfigError{Field: "client", Reason: "missing"}
	}
	return t.c, nil
}

// Get fetches one item. See Client.Get.
func (t *Table) Get(ctx context.Context, key Key, opts *Options) (json.RawMessage, error) {
	c, err := t.client()
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, t, key, opts)
}

// Put creates or replaces one item. See Client.Put.
func (t *Table) Put(ctx context.Context, key Key, item any, opts *Options) (json.RawMessage, error) {
	c, err := t.client()
	if err != nil {
		return nil, err
	}
	return c.Put(ctx, t, key, item, opts)
}

// Del deletes one item. See Client.Del.
func (t *Table) Del(ctx context.Context, key Key, opts *Options) error {
	c, err := t.client()
	if err != nil {
		return err
	}
	return c.Del(ctx, t, key, opts)
}

// GetRange lists items. See Client.GetRange.
func (t *Table) GetRange(ctx context.Context, opts *Options) (json.RawMessage, error) {
	c, err := t.client()
	if err != nil {
		return nil, err
	}
	return c.GetRange(ctx, t, opts)
}

// GetCount counts items. See Client.GetCount.
func (t *Table) GetCount(ctx context.Context, opts *Options) (json.RawMessage, error) {
	c, err := t.client()
	if err != nil {
		return nil, err
	}
	return c.GetCount(ctx, t, opts)
}

// Count is GetCount with the body decoded as an integer.
func (t *Table) Count(ctx context.Context, opts *Options) (int64, error) {
	raw, err := t.GetCount(ctx, opts)
	if err != nil {
		return 0, err
	}
	return Decode[int64](raw)
}

// Call invokes a server-defined action on one item. See Client.Call.
func (t *Table) Call(ctx context.Context, key Key, action string, params any, opts *Options) (json.RawMessage, error) {
	c, err := t.client()
	if err != nil {
		return nil, err
	}
	return c.Call(ctx, t, key, action, params, opts)
}
