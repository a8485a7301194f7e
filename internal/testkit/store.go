package testkit

import (
	"bytes"
	"errors"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

// store keeps one bucket per table. Keys are the encoded keys exactly as
// they appear in URLs; values are msgpack encoded items.
type store struct {
	db *bolt.DB
}

type keyRange struct {
	start, startAfter string
	end, endBefore    string
	limit             int
	reverse           bool
}

func (r keyRange) contains(k string) bool {
	switch {
	case r.start != "" && k < r.start:
		return false
	case r.startAfter != "" && k <= r.startAfter:
		return false
	case r.end != "" && k > r.end:
		return false
	case r.endBefore != "" && k >= r.endBefore:
		return false
	}
	return true
}

func (s *store) get(table, key string) (any, error) {
	var item any
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		return msgpack.Unmarshal(data, &item)
	})
	return item, err
}

func (s *store) put(table, key string, item map[string]any) error {
	data, err := msgpack.Marshal(item)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(table))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// create stores item under a fresh key and records the key in the item.
func (s *store) create(table string, item map[string]any) (string, error) {
	key := uuid.NewString()
	item["key"] = key
	return key, s.put(table, key, item)
}

func (s *store) del(table, key string) (bool, error) {
	var found bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil || b.Get([]byte(key)) == nil {
			return nil
		}
		found = true
		return b.Delete([]byte(key))
	})
	return found, err
}

var errLimit = errors.New("limit reached")

// scan calls fn for each item of table within r, in key order.
func (s *store) scan(table string, r keyRange, fn func(key string, item any)) error {
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}

		n := 0
		visit := func(k, v []byte) error {
			if !r.contains(string(k)) {
				return nil
			}
			var item any
			if err := msgpack.Unmarshal(v, &item); err != nil {
				return err
			}
			fn(string(k), item)
			n++
			if r.limit > 0 && n >= r.limit {
				return errLimit
			}
			return nil
		}

		c := b.Cursor()
		if r.reverse {
			for k, v := c.Last(); k != nil; k, v = c.Prev() {
				if err := visit(k, v); err != nil {
					return err
				}
			}
			return nil
		}
		k, v := c.First()
		if r.start != "" {
			k, v = c.Seek([]byte(r.start))
		}
		for ; k != nil; k, v = c.Next() {
			if r.end != "" && bytes.Compare(k, []byte(r.end)) > 0 {
				break
			}
			if err := visit(k, v); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errLimit) {
		return nil
	}
	return err
}
