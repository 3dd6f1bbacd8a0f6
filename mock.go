package sqlkit

import (
	"github.com/DATA-DOG/go-sqlmock"
)

// NewMockPool returns a pool backed by go-sqlmock, plus the expectation
// handle. Pings are monitored so Ping expectations work out of the box.
func NewMockPool() (*Pool, sqlmock.Sqlmock, error) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		return nil, nil, err
	}
	return newPoolFromDB(db), mock, nil
}
