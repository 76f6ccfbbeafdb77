package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	calls      []string
	steps      int
	opErr      error
	version    uint
	versionErr error
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	return f.opErr
}

func (f *fakeMigrator) Down() error {
	f.calls = append(f.calls, "down")
	return f.opErr
}

func (f *fakeMigrator) Steps(n int) error {
	f.calls = append(f.calls, "steps")
	f.steps = n
	return f.opErr
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	return f.version, false, f.versionErr
}

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		direction string
		steps     int
		wantCall  string
		wantSteps int
	}{
		{"up all", "up", 0, "up", 0},
		{"up steps", "up", 2, "steps", 2},
		{"down all", "down", 0, "down", 0},
		{"down steps", "down", 1, "steps", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMigrator{version: 1}

			version, _, err := apply(m, tt.direction, tt.steps)

			require.NoError(t, err)
			assert.Equal(t, []string{tt.wantCall}, m.calls)
			assert.Equal(t, tt.wantSteps, m.steps)
			assert.Equal(t, uint(1), version)
		})
	}
}

func TestApply_VersionOnly(t *testing.T) {
	m := &fakeMigrator{version: 3}

	version, _, err := apply(m, "version", 0)

	require.NoError(t, err)
	assert.Empty(t, m.calls)
	assert.Equal(t, uint(3), version)
}

func TestApply_NoChangeIsSuccess(t *testing.T) {
	m := &fakeMigrator{opErr: migrate.ErrNoChange, version: 1}

	_, _, err := apply(m, "up", 0)

	assert.NoError(t, err)
}

func TestApply_NilVersion(t *testing.T) {
	m := &fakeMigrator{versionErr: migrate.ErrNilVersion}

	version, dirty, err := apply(m, "down", 0)

	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)
}

func TestApply_Errors(t *testing.T) {
	_, _, err := apply(&fakeMigrator{}, "sideways", 0)
	assert.Error(t, err)

	_, _, err = apply(&fakeMigrator{opErr: errors.New("dirty database")}, "up", 0)
	assert.EqualError(t, err, "dirty database")
}
