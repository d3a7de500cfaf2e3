package bootstrap

import (
	"testing"

	"go-clinic-agenda/config"
	"go-clinic-agenda/internal/domain/entity"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessRules(t *testing.T) {
	rules, err := businessRules(config.SchedulingConfig{BusinessHoursStart: "07:30", BusinessHoursEnd: "19:00"})
	require.NoError(t, err)
	assert.Equal(t, entity.NewTimeOfDay(7, 30), rules.BusinessStart)
	assert.Equal(t, entity.NewTimeOfDay(19, 0), rules.BusinessEnd)

	_, err = businessRules(config.SchedulingConfig{BusinessHoursStart: "late", BusinessHoursEnd: "19:00"})
	assert.Error(t, err)

	_, err = businessRules(config.SchedulingConfig{BusinessHoursStart: "20:00", BusinessHoursEnd: "08:00"})
	assert.Error(t, err)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger(config.AppConfig{LogLevel: "debug"}).GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger(config.AppConfig{LogLevel: "chatty"}).GetLevel())
}

func TestCloseWithoutConnections(t *testing.T) {
	app := &App{Log: logrus.New()}
	assert.NotPanics(t, app.Close)
}
