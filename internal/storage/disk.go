package storage

import "os"

// DiskUsageBytes returns the size of the database file plus its WAL and shared
// memory files. In-memory databases report 0.
func (s *SQLiteStorage) DiskUsageBytes() (int64, error) {
	if s.path == ":memory:" || s.path == "" {
		return 0, nil
	}
	var total int64
	for _, p := range []string{s.path, s.path + "-wal", s.path + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}
