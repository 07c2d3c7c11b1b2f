package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// NewTest opens a named in-memory sqlite database for tests. Pass t.Name()
// so parallel test packages do not share state.
func NewTest(name string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
}
