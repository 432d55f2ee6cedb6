package storage

import (
	"errors"

	"github.com/sugawarayuuta/sonnet"

	"nanoalloy/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersion stamps a record with the versions this build writes.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}

func EncodeResult(r model.Result) ([]byte, error) {
	return sonnet.Marshal(r)
}

func DecodeResult(data []byte) (model.Result, error) {
	var result model.Result
	if err := sonnet.Unmarshal(data, &result); err != nil {
		return model.Result{}, err
	}
	if err := checkVersion(result.VersionedRecord); err != nil {
		return model.Result{}, err
	}
	return result, nil
}

func EncodeNanoparticle(np model.Nanoparticle) ([]byte, error) {
	return sonnet.Marshal(np)
}

func DecodeNanoparticle(data []byte) (model.Nanoparticle, error) {
	var np model.Nanoparticle
	if err := sonnet.Unmarshal(data, &np); err != nil {
		return model.Nanoparticle{}, err
	}
	if err := checkVersion(np.VersionedRecord); err != nil {
		return model.Nanoparticle{}, err
	}
	return np, nil
}

func EncodeRunLog(log model.RunLog) ([]byte, error) {
	return sonnet.Marshal(log)
}

func DecodeRunLog(data []byte) (model.RunLog, error) {
	var log model.RunLog
	if err := sonnet.Unmarshal(data, &log); err != nil {
		return model.RunLog{}, err
	}
	if err := checkVersion(log.VersionedRecord); err != nil {
		return model.RunLog{}, err
	}
	return log, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
