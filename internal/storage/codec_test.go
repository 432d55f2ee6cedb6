package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nanoalloy/internal/model"
)

func TestResultCodecRoundTrip(t *testing.T) {
	original := testResult(7, -3.2)

	data, err := EncodeResult(original)
	require.NoError(t, err)

	decoded, err := DecodeResult(data)
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestDecodeResultVersionMismatch(t *testing.T) {
	stale := testResult(7, -3.2)
	stale.SchemaVersion = CurrentSchemaVersion + 1

	data, err := EncodeResult(stale)
	require.NoError(t, err)

	_, err = DecodeResult(data)
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestNanoparticleCodecRoundTrip(t *testing.T) {
	original := model.Nanoparticle{
		VersionedRecord: CurrentVersion(),
		Shape:           "simple-cubic",
		NumShells:       2,
		NumAtoms:        27,
		Diameter:        10.39,
		Bonds:           [][2]int{{0, 1}, {1, 0}, {1, 2}, {2, 1}},
		Positions:       [][3]float64{{0, 0, 0}, {3, 0, 0}, {6, 0, 0}},
	}

	data, err := EncodeNanoparticle(original)
	require.NoError(t, err)

	decoded, err := DecodeNanoparticle(data)
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestRunLogCodecVersionCheck(t *testing.T) {
	log := model.RunLog{RunID: "r1"}

	data, err := EncodeRunLog(log)
	require.NoError(t, err)

	// Zero-valued versions are stale by definition.
	_, err = DecodeRunLog(data)
	require.ErrorIs(t, err, ErrVersionMismatch)

	log.VersionedRecord = CurrentVersion()
	data, err = EncodeRunLog(log)
	require.NoError(t, err)
	decoded, err := DecodeRunLog(data)
	require.NoError(t, err)
	require.Equal(t, log, decoded)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := DecodeResult([]byte("{not json"))
	require.Error(t, err)
}
