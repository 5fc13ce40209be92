package persist

import "sort"

// memoryDB implements db with an in-memory map, for tests that want
// ChangeLog's sequencing behavior without Badger's directory lock.
type memoryDB struct {
	data map[string][]byte
}

func newMemoryDB() *memoryDB {
	return &memoryDB{data: make(map[string][]byte)}
}

func (m *memoryDB) Get(key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, errKeyNotFound
	}
	return v, nil
}

func (m *memoryDB) Put(key, value []byte) error {
	m.data[string(key)] = value
	return nil
}

func (m *memoryDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)
	var keys []string
	for k := range m.data {
		if len(k) >= len(p) && k[:len(p)] == p {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), m.data[k]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryDB) Close() error { return nil }

var _ db = (*memoryDB)(nil)
