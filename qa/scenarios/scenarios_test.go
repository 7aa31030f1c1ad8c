package scenarios

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadDir("testdata")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)
	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoad(t *testing.T) {
	sc, err := Load("testdata/a_single_doctor.yaml")
	require.NoError(t, err)
	assert.Equal(t, "single doctor covers both sessions", sc.Name)
	require.Len(t, sc.Input.Doctors, 1)
	assert.Equal(t, 2, sc.Input.Doctors[0].MaxSessions)
	require.NotNil(t, sc.Expected.Objective)

	_, err = Load("testdata/missing.yaml")
	assert.Error(t, err)
}
