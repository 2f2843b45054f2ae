package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLoggerLogModeClones(t *testing.T) {
	base := NewGormLogger(0)
	silent := base.LogMode(gormlogger.Silent).(*GormLogger)

	assert.Equal(t, gormlogger.Warn, base.level)
	assert.Equal(t, gormlogger.Silent, silent.level)
	assert.Equal(t, 200*time.Millisecond, silent.slowThreshold)
}

func TestGormLoggerTraceSkipsFastQueries(t *testing.T) {
	l := NewGormLogger(time.Hour)

	called := false
	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		called = true
		return "SELECT 1", 1
	}, nil)
	assert.False(t, called)

	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		called = true
		return "SELECT 1", 0
	}, errors.New("boom"))
	assert.True(t, called)
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "inventorydb", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=inventorydb sslmode=disable", cfg.DSN())
}
