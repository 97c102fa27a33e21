package driver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVehicleClassJSON(t *testing.T) {
	b, err := XL.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"xl"`, string(b))
}

func TestVehicleClassScan(t *testing.T) {
	var v VehicleClass
	require.NoError(t, v.Scan("premium"))
	require.Equal(t, Premium, v)

	require.NoError(t, v.Scan("standard"))
	require.Equal(t, Standard, v)
}
